package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rewind/internal/backend"
	"rewind/internal/gitvc"
	"rewind/internal/hooks"
	"rewind/internal/journal"
	"rewind/internal/watch"
	shared "rewind/shared/types"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "rewind",
	Short: "Rewind takes restorable snapshots of a workspace",
	Long: `Rewind keeps a hidden shadow repository next to your workspace and lets
automated or AI-driven file edits be checkpointed, diffed and rolled back
safely.`,
}

var (
	flagBackend   string
	flagWorkspace string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "auto", "backend to use (real, mock, auto)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", ".", "workspace directory")

	var checkpointCmd = &cobra.Command{
		Use:   "checkpoint [message]",
		Short: "Snapshot the current workspace state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := "checkpoint"
			if len(args) == 1 {
				message = args[0]
			}

			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			outcome, err := b.Checkpoint(cmd.Context(), flagWorkspace, message)
			if err != nil {
				return fmt.Errorf("creating checkpoint: %w", err)
			}
			if outcome.NoChanges {
				fmt.Println("No changes since last checkpoint")
				return nil
			}
			fmt.Printf("Checkpoint %s created\n", outcome.Commit.Hash)
			return nil
		},
	}

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize checkpointing for the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := b.InitializeRepository(cmd.Context(), flagWorkspace); err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}
			fmt.Println("Workspace ready for checkpoints")
			return nil
		},
	}

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List checkpoints, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			commits, err := b.GetHistory(cmd.Context(), flagWorkspace, limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(commits) == 0 {
				fmt.Println("No checkpoints yet")
				return nil
			}
			for _, c := range commits {
				fmt.Printf("%s  %s  %s\n",
					shortHash(c.Hash),
					c.Timestamp.Format(time.RFC3339),
					c.Message,
				)
			}
			return nil
		},
	}
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of checkpoints to list")

	var currentCmd = &cobra.Command{
		Use:   "current",
		Short: "Show the most recent checkpoint hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			hash, err := b.GetCurrentCommit(cmd.Context(), flagWorkspace)
			if err != nil {
				return fmt.Errorf("resolving current checkpoint: %w", err)
			}
			if hash == "" {
				fmt.Println("No checkpoints yet")
				return nil
			}
			fmt.Println(hash)
			return nil
		},
	}

	var diffCmd = &cobra.Command{
		Use:   "diff <from> [to]",
		Short: "Show changes between checkpoints, or against the live workspace",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := ""
			if len(args) == 2 {
				to = args[1]
			}

			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			text, err := b.Diff(cmd.Context(), flagWorkspace, args[0], to)
			if err != nil {
				return fmt.Errorf("computing diff: %w", err)
			}
			if strings.TrimSpace(text) == "" {
				fmt.Println("No differences")
				return nil
			}

			if stats, err := gitvc.ParseStats(text); err == nil {
				fmt.Printf("%d file(s) changed, +%d -%d\n\n",
					stats.FilesChanged, stats.Additions, stats.Deletions)
			}
			printColoredDiff(text)
			return nil
		},
	}

	var revertCmd = &cobra.Command{
		Use:   "revert <sha>",
		Short: "Restore the workspace to a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := b.Revert(cmd.Context(), flagWorkspace, args[0]); err != nil {
				return fmt.Errorf("reverting workspace: %w", err)
			}
			fmt.Printf("Workspace restored to %s\n", shortHash(args[0]))
			return nil
		},
	}

	var fileCmd = &cobra.Command{
		Use:   "file <sha> <path>",
		Short: "Print a file's content as recorded at a checkpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			content, err := b.GetFileAtCommit(cmd.Context(), flagWorkspace, args[0], args[1])
			if err != nil {
				return fmt.Errorf("reading file at checkpoint: %w", err)
			}
			fmt.Print(content)
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Auto-checkpoint the workspace on filesystem changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ac, err := watch.NewAutoCheckpointer(flagWorkspace, b, logger)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer ac.Close()

			fmt.Printf("Watching %s (ctrl-c to stop)\n", flagWorkspace)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	var journalCmd = &cobra.Command{
		Use:   "journal",
		Short: "List recorded checkpoint and hook runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			limit, _ := cmd.Flags().GetInt("limit")

			j, err := journal.Open(path)
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer j.Close()

			entries, err := j.List(flagWorkspace, limit)
			if err != nil {
				return fmt.Errorf("listing journal: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No journal entries")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  %s  [%s]\n",
					e.ID[:8],
					e.CreatedAt.Format(time.RFC3339),
					shortHash(e.Hash),
					e.Message,
				)
			}
			return nil
		},
	}
	journalCmd.Flags().String("path", defaultJournalPath(), "journal database path")
	journalCmd.Flags().IntP("limit", "n", 20, "maximum number of entries to list")

	var runCmd = &cobra.Command{
		Use:   "run <label> -- <command> [args...]",
		Short: "Bracket a command with pre/post checkpoints",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, logger, err := selectBackend()
			if err != nil {
				return err
			}
			defer logger.Sync()

			j, err := journal.Open(defaultJournalPath())
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer j.Close()

			h := hooks.New(b, j, logger)
			label := args[0]

			pre := h.PreHook(cmd.Context(), flagWorkspace, label)
			if pre.Ok() {
				fmt.Printf("Pre-checkpoint %s\n", shortHash(pre.Hash))
			}

			if len(args) > 1 {
				if err := runTool(cmd.Context(), args[1:]); err != nil {
					fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
				}
			}

			post, diffText := h.PostHook(cmd.Context(), flagWorkspace, label, pre.Hash)
			if post.Ok() {
				fmt.Printf("Post-checkpoint %s\n", shortHash(post.Hash))
			}
			if diffText != "" {
				printColoredDiff(diffText)
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(runCmd)
}

func selectBackend() (backend.Backend, *zap.Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	opts := backend.DefaultOptions()
	opts.Type = shared.BackendType(flagBackend)
	b, err := backend.Select(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	return b, logger, nil
}

func runTool(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = flagWorkspace
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rewind-journal"
	}
	return home + "/.rewind/journal"
}

func printColoredDiff(diff string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	lines := strings.Split(diff, "\n")
	for _, line := range lines {
		if len(line) == 0 {
			fmt.Println()
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
