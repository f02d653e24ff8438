// Package engine is the public operation surface of the checkpoint
// system: checkpoint, diff, revert, history and friends, composed from
// the shadow store, the synchronizer and the git adapter.
package engine

import (
	"context"
	"path/filepath"
	"sync"

	"rewind/internal/gitvc"
	"rewind/internal/shadow"
	"rewind/internal/vcerrors"
	shared "rewind/shared/types"

	"go.uber.org/zap"
)

// InitMessage is the synthetic message used by InitializeRepository.
const InitMessage = "initialize checkpoints"

type Engine struct {
	store   *shadow.Store
	sync    *shadow.Synchronizer
	adapter *gitvc.Adapter
	logger  *zap.Logger

	// Checkpoint and revert against the same workspace must never
	// interleave; cross-workspace operations stay independent.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(adapter *gitvc.Adapter, logger *zap.Logger) *Engine {
	return &Engine{
		store:   shadow.NewStore(adapter, logger),
		sync:    shadow.NewSynchronizer(logger),
		adapter: adapter,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockWorkspace(workspace string) func() {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		abs = workspace
	}
	e.mu.Lock()
	lock, ok := e.locks[abs]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[abs] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Checkpoint snapshots the workspace: ensure shadow, push the live tree
// into it, stage and commit. The only operation that advances history.
// A NoChanges outcome means the tree was identical to the last commit.
func (e *Engine) Checkpoint(ctx context.Context, workspace, message string) (*shared.CheckpointOutcome, error) {
	defer e.lockWorkspace(workspace)()

	shadowPath, err := e.store.Ensure(ctx, workspace)
	if err != nil {
		return nil, err
	}
	if err := e.sync.PushToShadow(workspace, shadowPath); err != nil {
		return nil, vcerrors.OperationFailed("synchronizing workspace to shadow", err)
	}

	commit, err := e.adapter.StageAndCommit(ctx, shadowPath, message)
	if err != nil {
		return nil, vcerrors.OperationFailed("committing checkpoint", err)
	}
	if commit == nil {
		e.logger.Debug("checkpoint found no changes",
			zap.String("workspace", workspace))
		return &shared.CheckpointOutcome{NoChanges: true}, nil
	}

	e.logger.Info("checkpoint created",
		zap.String("workspace", workspace),
		zap.String("hash", commit.Hash),
		zap.String("message", message))
	return &shared.CheckpointOutcome{Commit: commit}, nil
}

// Diff returns the textual difference between two checkpoints, or, when
// toSha is empty, between fromSha and the live workspace state. In the
// latter case the workspace is pushed to the shadow first so uncommitted
// edits show up.
func (e *Engine) Diff(ctx context.Context, workspace, fromSha, toSha string) (string, error) {
	defer e.lockWorkspace(workspace)()

	shadowPath, err := e.store.Ensure(ctx, workspace)
	if err != nil {
		return "", err
	}
	if toSha == "" {
		if err := e.sync.PushToShadow(workspace, shadowPath); err != nil {
			return "", vcerrors.OperationFailed("synchronizing workspace to shadow", err)
		}
	}

	text, err := e.adapter.Diff(ctx, shadowPath, fromSha, toSha)
	if err != nil {
		return "", vcerrors.OperationFailed("computing diff", err)
	}
	return text, nil
}

// Revert hard-resets the shadow to sha and propagates the reset tree
// back onto the live workspace.
func (e *Engine) Revert(ctx context.Context, workspace, sha string) error {
	defer e.lockWorkspace(workspace)()

	shadowPath, err := e.store.Ensure(ctx, workspace)
	if err != nil {
		return err
	}
	if err := e.adapter.HardResetTo(ctx, shadowPath, sha); err != nil {
		return vcerrors.OperationFailed("resetting shadow repository", err)
	}
	if err := e.sync.PullFromShadow(workspace, shadowPath); err != nil {
		return vcerrors.OperationFailed("restoring workspace from shadow", err)
	}

	e.logger.Info("workspace reverted",
		zap.String("workspace", workspace),
		zap.String("hash", sha))
	return nil
}

// History returns up to limit commits, newest first.
func (e *Engine) History(ctx context.Context, workspace string, limit int) ([]shared.Commit, error) {
	shadowPath, err := e.store.Ensure(ctx, workspace)
	if err != nil {
		return nil, err
	}
	commits, err := e.adapter.Log(ctx, shadowPath, limit)
	if err != nil {
		return nil, vcerrors.OperationFailed("reading history", err)
	}
	return commits, nil
}

// CurrentCommit returns the most recent checkpoint hash, or empty when
// the shadow has no commits yet. An empty result is not an error.
func (e *Engine) CurrentCommit(ctx context.Context, workspace string) (string, error) {
	shadowPath, err := e.store.Ensure(ctx, workspace)
	if err != nil {
		return "", err
	}
	hash, err := e.adapter.CurrentCommit(ctx, shadowPath)
	if err != nil {
		return "", vcerrors.OperationFailed("resolving current commit", err)
	}
	return hash, nil
}

// HasRepository reports whether a shadow repository already exists for
// the workspace. Existence check only; never creates the shadow.
func (e *Engine) HasRepository(workspace string) bool {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return false
	}
	return shadow.HasRepository(abs)
}

// FileAtCommit reads one file's content as recorded at a checkpoint.
func (e *Engine) FileAtCommit(ctx context.Context, workspace, sha, path string) (string, error) {
	shadowPath, err := e.store.Ensure(ctx, workspace)
	if err != nil {
		return "", err
	}
	content, err := e.adapter.ShowFile(ctx, shadowPath, sha, path)
	if err != nil {
		return "", vcerrors.OperationFailed("reading file at commit", err)
	}
	return content, nil
}

// InitializeRepository makes the workspace ready for checkpoints. It is
// an initial checkpoint with a synthetic message; a no-changes outcome
// counts as success.
func (e *Engine) InitializeRepository(ctx context.Context, workspace string) error {
	_, err := e.Checkpoint(ctx, workspace, InitMessage)
	return err
}
