package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	shared "rewind/shared/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingBackend records checkpoint calls and succeeds with a fixed
// outcome.
type countingBackend struct {
	mu          sync.Mutex
	checkpoints int
}

func (c *countingBackend) Checkpoint(context.Context, string, string) (*shared.CheckpointOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpoints++
	return &shared.CheckpointOutcome{Commit: &shared.Commit{Hash: "auto"}}, nil
}

func (c *countingBackend) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkpoints
}

func (c *countingBackend) HasRepository(context.Context, string) (bool, error) { return true, nil }
func (c *countingBackend) GetCurrentCommit(context.Context, string) (string, error) {
	return "", nil
}
func (c *countingBackend) GetHistory(context.Context, string, int) ([]shared.Commit, error) {
	return nil, nil
}
func (c *countingBackend) Diff(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (c *countingBackend) Revert(context.Context, string, string) error { return nil }
func (c *countingBackend) GetFileAtCommit(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (c *countingBackend) InitializeRepository(context.Context, string) error { return nil }
func (c *countingBackend) GetBackendType() shared.BackendType                 { return shared.BackendMock }
func (c *countingBackend) IsRealBackend() bool                                { return false }
func (c *countingBackend) Dispose() error                                     { return nil }

// setDebounce shortens the debounce window under the same lock the
// event handler uses.
func setDebounce(ac *AutoCheckpointer, d time.Duration) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.debounce = d
}

func TestShouldIgnore(t *testing.T) {
	workspace := t.TempDir()
	ac := &AutoCheckpointer{workspace: workspace}

	assert.False(t, ac.shouldIgnore(workspace))
	assert.False(t, ac.shouldIgnore(filepath.Join(workspace, "src")))
	assert.True(t, ac.shouldIgnore(filepath.Join(workspace, ".rewind")))
	assert.True(t, ac.shouldIgnore(filepath.Join(workspace, ".rewind", "objects")))
	assert.True(t, ac.shouldIgnore(filepath.Join(workspace, ".git")))
	assert.True(t, ac.shouldIgnore(filepath.Join(workspace, "node_modules", "pkg")))
	assert.True(t, ac.shouldIgnore(filepath.Join(workspace, "sub", "vendor")))
}

func TestAutoCheckpointOnWrite(t *testing.T) {
	workspace := t.TempDir()
	b := &countingBackend{}

	ac, err := NewAutoCheckpointer(workspace, b, zap.NewNop())
	require.NoError(t, err)
	defer ac.Close()
	setDebounce(ac, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "a.txt"), []byte("1"), 0644))

	assert.Eventually(t, func() bool {
		return b.count() >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestBurstIsDebounced(t *testing.T) {
	workspace := t.TempDir()
	b := &countingBackend{}

	ac, err := NewAutoCheckpointer(workspace, b, zap.NewNop())
	require.NoError(t, err)
	defer ac.Close()
	setDebounce(ac, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		name := filepath.Join(workspace, "burst"+string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
	}

	assert.Eventually(t, func() bool {
		return b.count() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The burst settles into a single checkpoint.
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, 1, b.count())
}
