package hooks

import (
	"context"
	"errors"
	"testing"

	"rewind/internal/journal"
	shared "rewind/shared/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend scripts checkpoint and diff outcomes so hook behavior can
// be tested without a repository.
type fakeBackend struct {
	hashes        []string
	checkpointErr error
	diffText      string
	diffErr       error
	revertErr     error

	messages []string
	reverted []string
}

func (f *fakeBackend) Checkpoint(_ context.Context, _, message string) (*shared.CheckpointOutcome, error) {
	if f.checkpointErr != nil {
		return nil, f.checkpointErr
	}
	f.messages = append(f.messages, message)
	if len(f.hashes) == 0 {
		return &shared.CheckpointOutcome{NoChanges: true}, nil
	}
	hash := f.hashes[0]
	f.hashes = f.hashes[1:]
	return &shared.CheckpointOutcome{Commit: &shared.Commit{Hash: hash, Message: message}}, nil
}

func (f *fakeBackend) Diff(context.Context, string, string, string) (string, error) {
	return f.diffText, f.diffErr
}

func (f *fakeBackend) Revert(_ context.Context, _, sha string) error {
	if f.revertErr != nil {
		return f.revertErr
	}
	f.reverted = append(f.reverted, sha)
	return nil
}

func (f *fakeBackend) HasRepository(context.Context, string) (bool, error) { return true, nil }
func (f *fakeBackend) GetCurrentCommit(context.Context, string) (string, error) {
	return "", nil
}
func (f *fakeBackend) GetHistory(context.Context, string, int) ([]shared.Commit, error) {
	return nil, nil
}
func (f *fakeBackend) GetFileAtCommit(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (f *fakeBackend) InitializeRepository(context.Context, string) error { return nil }
func (f *fakeBackend) GetBackendType() shared.BackendType                 { return shared.BackendMock }
func (f *fakeBackend) IsRealBackend() bool                                { return false }
func (f *fakeBackend) Dispose() error                                     { return nil }

func openTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestPreHook(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a labeled pre-checkpoint", func(t *testing.T) {
		b := &fakeBackend{hashes: []string{"pre123"}}
		h := New(b, nil, zap.NewNop())

		result := h.PreHook(ctx, "/work", "apply patch")
		assert.True(t, result.Ok())
		assert.Equal(t, "pre123", result.Hash)
		require.Len(t, b.messages, 1)
		assert.Equal(t, "before apply patch", b.messages[0])
	})

	t.Run("no changes is a skip, not an error", func(t *testing.T) {
		b := &fakeBackend{}
		h := New(b, nil, zap.NewNop())

		result := h.PreHook(ctx, "/work", "apply patch")
		assert.False(t, result.Ok())
		assert.True(t, result.Skipped)
		assert.NoError(t, result.Err)
	})

	t.Run("failures are downgraded with the cause preserved", func(t *testing.T) {
		cause := errors.New("shadow corrupted")
		b := &fakeBackend{checkpointErr: cause}
		h := New(b, nil, zap.NewNop())

		result := h.PreHook(ctx, "/work", "apply patch")
		assert.False(t, result.Ok())
		assert.True(t, result.Skipped)
		assert.ErrorIs(t, result.Err, cause)
	})
}

func TestPostHook(t *testing.T) {
	ctx := context.Background()
	diffText := "--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-old\n+new\n"

	t.Run("records the diff between pre and post", func(t *testing.T) {
		b := &fakeBackend{hashes: []string{"post456"}, diffText: diffText}
		j := openTestJournal(t)
		h := New(b, j, zap.NewNop())

		result, diff := h.PostHook(ctx, "/work", "apply patch", "pre123")
		assert.True(t, result.Ok())
		assert.Equal(t, "post456", result.Hash)
		assert.Equal(t, diffText, diff)
		require.Len(t, b.messages, 1)
		assert.Equal(t, "after apply patch", b.messages[0])

		entries, err := j.List("/work", 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "post456", entries[0].Hash)
		assert.Equal(t, "apply patch", entries[0].Label)

		stored, err := j.Diff(entries[0].ID)
		require.NoError(t, err)
		assert.Equal(t, diffText, stored)
	})

	t.Run("no diff without a pre hash", func(t *testing.T) {
		b := &fakeBackend{hashes: []string{"post456"}, diffText: diffText}
		h := New(b, nil, zap.NewNop())

		result, diff := h.PostHook(ctx, "/work", "apply patch", "")
		assert.True(t, result.Ok())
		assert.Empty(t, diff)
	})

	t.Run("skipped checkpoint yields no diff", func(t *testing.T) {
		b := &fakeBackend{diffText: diffText}
		h := New(b, nil, zap.NewNop())

		result, diff := h.PostHook(ctx, "/work", "apply patch", "pre123")
		assert.True(t, result.Skipped)
		assert.Empty(t, diff)
	})

	t.Run("diff failure does not fail the hook", func(t *testing.T) {
		b := &fakeBackend{hashes: []string{"post456"}, diffErr: errors.New("bad sha")}
		h := New(b, nil, zap.NewNop())

		result, diff := h.PostHook(ctx, "/work", "apply patch", "pre123")
		assert.True(t, result.Ok())
		assert.Empty(t, diff)
	})
}

func TestRevertToCheckpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds", func(t *testing.T) {
		b := &fakeBackend{}
		h := New(b, nil, zap.NewNop())

		assert.True(t, h.RevertToCheckpoint(ctx, "/work", "pre123"))
		assert.Equal(t, []string{"pre123"}, b.reverted)
	})

	t.Run("failure becomes a false return", func(t *testing.T) {
		b := &fakeBackend{revertErr: errors.New("unknown sha")}
		h := New(b, nil, zap.NewNop())

		assert.False(t, h.RevertToCheckpoint(ctx, "/work", "pre123"))
	})
}
