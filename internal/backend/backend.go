// Package backend defines the caller-facing operation surface of the
// checkpoint system and its concrete implementations: a real backend
// driving the git adapter, and a mock backend returning deterministic
// canned values for tests and environments without the git channel.
package backend

import (
	"context"

	shared "rewind/shared/types"
)

// Backend is the stable caller-facing contract. All implementations
// dispatch through this interface; call sites never type-switch on the
// concrete variant.
type Backend interface {
	HasRepository(ctx context.Context, workspace string) (bool, error)
	GetCurrentCommit(ctx context.Context, workspace string) (string, error)
	GetHistory(ctx context.Context, workspace string, limit int) ([]shared.Commit, error)
	Checkpoint(ctx context.Context, workspace, message string) (*shared.CheckpointOutcome, error)
	Diff(ctx context.Context, workspace, fromSha, toSha string) (string, error)
	Revert(ctx context.Context, workspace, sha string) error
	// GetFileAtCommit is optional; backends that do not implement it
	// return an Unsupported error, which callers must tolerate.
	GetFileAtCommit(ctx context.Context, workspace, sha, path string) (string, error)
	InitializeRepository(ctx context.Context, workspace string) error

	GetBackendType() shared.BackendType
	IsRealBackend() bool
	Dispose() error
}
