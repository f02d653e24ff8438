package backend

import (
	"context"
	"sync"
	"time"

	shared "rewind/shared/types"
)

// MockHash is the fixed hash every mock checkpoint returns.
const MockHash = "mock-hash"

// MockDiff is the canned diff text the mock backend returns.
const MockDiff = "--- a/mock.txt\n+++ b/mock.txt\n@@ -1 +1 @@\n-old\n+new\n"

// mockBackend returns deterministic synthetic values without touching
// the filesystem, so it is safe to call with nonexistent paths.
type mockBackend struct {
	mu          sync.Mutex
	initialized map[string]bool
	disposed    bool
}

func newMock() *mockBackend {
	return &mockBackend{initialized: make(map[string]bool)}
}

func (b *mockBackend) HasRepository(_ context.Context, workspace string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized[workspace], nil
}

func (b *mockBackend) GetCurrentCommit(_ context.Context, workspace string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized[workspace] {
		return MockHash, nil
	}
	return "", nil
}

func (b *mockBackend) GetHistory(context.Context, string, int) ([]shared.Commit, error) {
	return nil, nil
}

func (b *mockBackend) Checkpoint(_ context.Context, workspace, message string) (*shared.CheckpointOutcome, error) {
	b.mu.Lock()
	b.initialized[workspace] = true
	b.mu.Unlock()
	return &shared.CheckpointOutcome{Commit: &shared.Commit{
		Hash:      MockHash,
		Message:   message,
		Author:    "mock",
		Timestamp: time.Unix(0, 0).UTC(),
	}}, nil
}

func (b *mockBackend) Diff(context.Context, string, string, string) (string, error) {
	return MockDiff, nil
}

func (b *mockBackend) Revert(_ context.Context, workspace, _ string) error {
	b.mu.Lock()
	b.initialized[workspace] = true
	b.mu.Unlock()
	return nil
}

func (b *mockBackend) GetFileAtCommit(context.Context, string, string, string) (string, error) {
	return "mock file content", nil
}

func (b *mockBackend) InitializeRepository(_ context.Context, workspace string) error {
	b.mu.Lock()
	b.initialized[workspace] = true
	b.mu.Unlock()
	return nil
}

func (b *mockBackend) GetBackendType() shared.BackendType {
	return shared.BackendMock
}

func (b *mockBackend) IsRealBackend() bool {
	return false
}

func (b *mockBackend) Dispose() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disposed = true
	b.initialized = make(map[string]bool)
	return nil
}
