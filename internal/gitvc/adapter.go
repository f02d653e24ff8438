// Package gitvc wraps the git executable with the four primitives the
// checkpoint engine needs: stage-and-commit, diff, hard reset and log.
package gitvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	shared "rewind/shared/types"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	committerName  = "rewind"
	committerEmail = "rewind@localhost"

	// Commit content is immutable, so file-at-commit reads are cacheable.
	fileCacheSize = 256

	logFieldSep   = "\x1f"
	logRecordSep  = "\x1e"
	commitFormat  = "%H" + logFieldSep + "%s" + logFieldSep + "%an" + logFieldSep + "%aI"
)

// Adapter executes version-control primitives against a shadow
// repository directory. One adapter serves any number of repositories.
type Adapter struct {
	runner    Runner
	fileCache *lru.Cache[string, string]
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Adapter {
	return NewWithRunner(execRunner{}, logger)
}

func NewWithRunner(runner Runner, logger *zap.Logger) *Adapter {
	cache, _ := lru.New[string, string](fileCacheSize)
	return &Adapter{
		runner:    runner,
		fileCache: cache,
		logger:    logger,
	}
}

// InitRepo initializes an empty repository in dir with a fixed committer
// identity so automated commits succeed without user configuration.
// Idempotent: an existing repository is left untouched.
func (a *Adapter) InitRepo(ctx context.Context, dir string) error {
	if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
		return nil
	}

	if _, err := a.runner.Run(ctx, dir, "init"); err != nil {
		return fmt.Errorf("initializing repository: %w", err)
	}
	for _, kv := range [][2]string{
		{"user.name", committerName},
		{"user.email", committerEmail},
		{"commit.gpgsign", "false"},
	} {
		if _, err := a.runner.Run(ctx, dir, "config", kv[0], kv[1]); err != nil {
			return fmt.Errorf("configuring repository: %w", err)
		}
	}
	return nil
}

// StageAndCommit stages all pending changes and commits them. A nil
// commit with nil error means the tree was byte-identical to the last
// commit; no empty history entry is created in that case.
func (a *Adapter) StageAndCommit(ctx context.Context, dir, message string) (*shared.Commit, error) {
	if _, err := a.runner.Run(ctx, dir, "add", "-A"); err != nil {
		return nil, fmt.Errorf("staging changes: %w", err)
	}

	status, err := a.runner.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("checking status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		return nil, nil
	}

	if _, err := a.runner.Run(ctx, dir, "commit", "-m", message); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	return a.readCommit(ctx, dir, "HEAD")
}

// Diff returns the textual difference between two commits, or, when to
// is empty, between from and the currently staged tree. The working
// tree is staged first so new files appear in the diff.
func (a *Adapter) Diff(ctx context.Context, dir, from, to string) (string, error) {
	if to == "" {
		if _, err := a.runner.Run(ctx, dir, "add", "-A"); err != nil {
			return "", fmt.Errorf("staging for diff: %w", err)
		}
		out, err := a.runner.Run(ctx, dir, "diff", "--cached", from)
		if err != nil {
			return "", fmt.Errorf("diffing against working tree: %w", err)
		}
		return out, nil
	}

	out, err := a.runner.Run(ctx, dir, "diff", from, to)
	if err != nil {
		return "", fmt.Errorf("diffing commits: %w", err)
	}
	return out, nil
}

// HardResetTo discards all working-tree changes and resets the
// repository to exactly match the given commit's recorded tree. Commits
// made after sha become orphaned: still addressable by hash, no longer
// listed by Log.
func (a *Adapter) HardResetTo(ctx context.Context, dir, sha string) error {
	if _, err := a.runner.Run(ctx, dir, "reset", "--hard", sha); err != nil {
		return fmt.Errorf("resetting to %s: %w", sha, err)
	}
	if _, err := a.runner.Run(ctx, dir, "clean", "-fd"); err != nil {
		return fmt.Errorf("cleaning untracked files: %w", err)
	}
	return nil
}

// Log returns up to limit commits, newest first. A repository with no
// commits yet yields an empty slice, not an error.
func (a *Adapter) Log(ctx context.Context, dir string, limit int) ([]shared.Commit, error) {
	if !a.hasCommits(ctx, dir) {
		return nil, nil
	}

	args := []string{"log", "--format=" + commitFormat + logRecordSep}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	out, err := a.runner.Run(ctx, dir, args...)
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	var commits []shared.Commit
	for _, record := range strings.Split(out, logRecordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		commit, err := parseCommitRecord(record)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *commit)
	}
	return commits, nil
}

// CurrentCommit returns the hash of the latest commit, or empty when the
// repository has no commits yet.
func (a *Adapter) CurrentCommit(ctx context.Context, dir string) (string, error) {
	if !a.hasCommits(ctx, dir) {
		return "", nil
	}
	out, err := a.runner.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ShowFile reads one file's content as recorded at a commit.
func (a *Adapter) ShowFile(ctx context.Context, dir, sha, path string) (string, error) {
	cacheKey := dir + "\x00" + sha + "\x00" + path
	if content, ok := a.fileCache.Get(cacheKey); ok {
		return content, nil
	}

	out, err := a.runner.Run(ctx, dir, "show", sha+":"+path)
	if err != nil {
		return "", fmt.Errorf("reading %s at %s: %w", path, sha, err)
	}

	a.fileCache.Add(cacheKey, out)
	return out, nil
}

func (a *Adapter) hasCommits(ctx context.Context, dir string) bool {
	_, err := a.runner.Run(ctx, dir, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

func (a *Adapter) readCommit(ctx context.Context, dir, ref string) (*shared.Commit, error) {
	out, err := a.runner.Run(ctx, dir, "log", "-1", "--format="+commitFormat, ref)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", ref, err)
	}
	return parseCommitRecord(strings.TrimSpace(out))
}

func parseCommitRecord(record string) (*shared.Commit, error) {
	parts := strings.Split(record, logFieldSep)
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed commit record: %q", record)
	}
	timestamp, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return nil, fmt.Errorf("parsing commit timestamp: %w", err)
	}
	return &shared.Commit{
		Hash:      parts[0],
		Message:   parts[1],
		Author:    parts[2],
		Timestamp: timestamp,
	}, nil
}
