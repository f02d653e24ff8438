package backend

import (
	"context"

	"rewind/internal/engine"
	shared "rewind/shared/types"
)

// realBackend delegates every operation to the checkpoint engine, which
// reaches the version-control engine through the git command channel.
type realBackend struct {
	engine *engine.Engine
}

func newReal(eng *engine.Engine) *realBackend {
	return &realBackend{engine: eng}
}

func (b *realBackend) HasRepository(_ context.Context, workspace string) (bool, error) {
	return b.engine.HasRepository(workspace), nil
}

func (b *realBackend) GetCurrentCommit(ctx context.Context, workspace string) (string, error) {
	return b.engine.CurrentCommit(ctx, workspace)
}

func (b *realBackend) GetHistory(ctx context.Context, workspace string, limit int) ([]shared.Commit, error) {
	return b.engine.History(ctx, workspace, limit)
}

func (b *realBackend) Checkpoint(ctx context.Context, workspace, message string) (*shared.CheckpointOutcome, error) {
	return b.engine.Checkpoint(ctx, workspace, message)
}

func (b *realBackend) Diff(ctx context.Context, workspace, fromSha, toSha string) (string, error) {
	return b.engine.Diff(ctx, workspace, fromSha, toSha)
}

func (b *realBackend) Revert(ctx context.Context, workspace, sha string) error {
	return b.engine.Revert(ctx, workspace, sha)
}

func (b *realBackend) GetFileAtCommit(ctx context.Context, workspace, sha, path string) (string, error) {
	return b.engine.FileAtCommit(ctx, workspace, sha, path)
}

func (b *realBackend) InitializeRepository(ctx context.Context, workspace string) error {
	return b.engine.InitializeRepository(ctx, workspace)
}

func (b *realBackend) GetBackendType() shared.BackendType {
	return shared.BackendReal
}

func (b *realBackend) IsRealBackend() bool {
	return true
}

// Dispose is a no-op: the real backend holds no resources. Defined for
// symmetry with the mock backend's test teardown.
func (b *realBackend) Dispose() error {
	return nil
}
