package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rewind/internal/api"
	"rewind/internal/backend"
	shared "rewind/shared/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Client {
	t.Helper()
	manager, err := backend.NewManager(backend.Options{Type: shared.BackendMock}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Dispose() })

	h := api.NewCheckpointHandler(manager, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/workspaces/checkpoint", h.Checkpoint)
	mux.HandleFunc("POST /api/workspaces/diff", h.Diff)
	mux.HandleFunc("POST /api/workspaces/revert", h.Revert)
	mux.HandleFunc("POST /api/workspaces/initialize", h.Initialize)
	mux.HandleFunc("GET /api/workspaces/has-repository", h.HasRepository)
	mux.HandleFunc("GET /api/workspaces/current", h.CurrentCommit)
	mux.HandleFunc("GET /api/workspaces/history", h.History)
	mux.HandleFunc("GET /api/workspaces/file", h.FileAtCommit)
	mux.HandleFunc("GET /api/backend", h.BackendInfo)
	mux.HandleFunc("POST /api/backend/switch", h.SwitchBackend)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return New(server.URL)
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestServer(t)

	t.Run("checkpoint", func(t *testing.T) {
		outcome, err := c.Checkpoint("/work", "snapshot")
		require.NoError(t, err)
		require.NotNil(t, outcome.Commit)
		assert.Equal(t, backend.MockHash, outcome.Commit.Hash)
	})

	t.Run("diff", func(t *testing.T) {
		diff, err := c.Diff("/work", "aaa", "bbb")
		require.NoError(t, err)
		assert.Equal(t, backend.MockDiff, diff)
	})

	t.Run("revert and initialize", func(t *testing.T) {
		require.NoError(t, c.Revert("/work", "aaa"))
		require.NoError(t, c.Initialize("/work"))
	})

	t.Run("repository state", func(t *testing.T) {
		has, err := c.HasRepository("/work")
		require.NoError(t, err)
		assert.True(t, has)

		hash, err := c.CurrentCommit("/work")
		require.NoError(t, err)
		assert.Equal(t, backend.MockHash, hash)
	})

	t.Run("history", func(t *testing.T) {
		commits, err := c.History("/work", 5)
		require.NoError(t, err)
		assert.Empty(t, commits)
	})

	t.Run("file at commit", func(t *testing.T) {
		content, err := c.FileAtCommit("/work", "aaa", "a.txt")
		require.NoError(t, err)
		assert.NotEmpty(t, content)
	})

	t.Run("backend info and switch", func(t *testing.T) {
		backendType, real, err := c.BackendInfo()
		require.NoError(t, err)
		assert.Equal(t, shared.BackendMock, backendType)
		assert.False(t, real)

		require.NoError(t, c.SwitchBackend(shared.BackendMock))
	})
}

func TestClientSurfacesServerErrors(t *testing.T) {
	c := newTestServer(t)

	_, err := c.Checkpoint("", "no workspace")
	require.Error(t, err)
}
