// Package hooks brackets a tool invocation with a pre-checkpoint and a
// post-checkpoint so automated edits can be inspected and undone. This
// is the one layer that deliberately downgrades failures: it is invoked
// from best-effort automation paths, so errors become skipped results
// with the reason preserved for observability instead of propagating.
package hooks

import (
	"context"
	"fmt"

	"rewind/internal/backend"
	"rewind/internal/gitvc"
	"rewind/internal/journal"
	shared "rewind/shared/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is the outcome of a hook checkpoint. Skipped covers both the
// no-changes case and downgraded failures; Err carries the original
// failure when there was one.
type Result struct {
	Hash    string
	Skipped bool
	Err     error
}

// Ok reports whether a meaningful checkpoint was created.
func (r Result) Ok() bool {
	return !r.Skipped && r.Hash != ""
}

type Hooks struct {
	backend backend.Backend
	journal *journal.Journal
	logger  *zap.Logger
}

// New creates the tool-execution integration. The journal may be nil;
// hook runs are then not recorded.
func New(b backend.Backend, j *journal.Journal, logger *zap.Logger) *Hooks {
	return &Hooks{backend: b, journal: j, logger: logger}
}

// PreHook checkpoints the workspace before a labeled tool execution.
// The result is skipped (not an error) when there was nothing to
// snapshot, so callers can cheaply test whether a pre-state exists.
func (h *Hooks) PreHook(ctx context.Context, workspace, label string) Result {
	return h.checkpoint(ctx, workspace, label, fmt.Sprintf("before %s", label), "")
}

// PostHook checkpoints the workspace after the labeled work completed.
// When both the pre and post hashes are meaningful it also computes the
// diff between them, records it in the journal and returns it.
func (h *Hooks) PostHook(ctx context.Context, workspace, label, preHash string) (Result, string) {
	result := h.checkpoint(ctx, workspace, label, fmt.Sprintf("after %s", label), preHash)
	if !result.Ok() || preHash == "" {
		return result, ""
	}

	diffText, err := h.backend.Diff(ctx, workspace, preHash, result.Hash)
	if err != nil {
		h.logger.Warn("post-hook diff failed",
			zap.String("workspace", workspace),
			zap.String("label", label),
			zap.Error(err))
		return result, ""
	}

	if stats, err := gitvc.ParseStats(diffText); err == nil {
		h.logger.Info("tool execution changed workspace",
			zap.String("label", label),
			zap.Int("files_changed", stats.FilesChanged),
			zap.Int("additions", stats.Additions),
			zap.Int("deletions", stats.Deletions))
	}
	h.record(workspace, result.Hash, fmt.Sprintf("after %s", label), label, diffText)
	return result, diffText
}

// RevertToCheckpoint wraps revert for best-effort undo actions: thrown
// failures become a false return instead of propagating.
func (h *Hooks) RevertToCheckpoint(ctx context.Context, workspace, hash string) bool {
	if err := h.backend.Revert(ctx, workspace, hash); err != nil {
		h.logger.Warn("revert to checkpoint failed",
			zap.String("workspace", workspace),
			zap.String("hash", hash),
			zap.Error(err))
		return false
	}
	return true
}

func (h *Hooks) checkpoint(ctx context.Context, workspace, label, message, preHash string) Result {
	runID := uuid.New().String()

	outcome, err := h.backend.Checkpoint(ctx, workspace, message)
	if err != nil {
		h.logger.Warn("hook checkpoint failed",
			zap.String("run_id", runID),
			zap.String("workspace", workspace),
			zap.String("label", label),
			zap.Error(err))
		return Result{Skipped: true, Err: err}
	}
	if outcome.NoChanges {
		h.logger.Debug("hook checkpoint skipped, no changes",
			zap.String("run_id", runID),
			zap.String("workspace", workspace),
			zap.String("label", label))
		return Result{Skipped: true}
	}

	if preHash == "" {
		h.record(workspace, outcome.Commit.Hash, message, label, "")
	}
	return Result{Hash: outcome.Commit.Hash}
}

func (h *Hooks) record(workspace, hash, message, label, diffText string) {
	if h.journal == nil {
		return
	}
	_, err := h.journal.Record(shared.JournalEntry{
		Workspace: workspace,
		Hash:      hash,
		Message:   message,
		Label:     label,
	}, diffText)
	if err != nil {
		h.logger.Warn("recording hook run failed", zap.Error(err))
	}
}
