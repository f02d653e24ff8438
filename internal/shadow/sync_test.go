package shadow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(content)
}

func setupTrees(t *testing.T) (string, string) {
	t.Helper()
	workspace := t.TempDir()
	shadowPath := filepath.Join(workspace, MirrorDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(shadowPath, VCMetaDirName), 0755))
	return workspace, shadowPath
}

func TestPushToShadow(t *testing.T) {
	sync := NewSynchronizer(zap.NewNop())

	t.Run("copies adds and modifications", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, workspace, "a.txt", "1")
		writeFile(t, workspace, "sub/b.txt", "2")

		require.NoError(t, sync.PushToShadow(workspace, shadowPath))
		assert.Equal(t, "1", readFile(t, shadowPath, "a.txt"))
		assert.Equal(t, "2", readFile(t, shadowPath, "sub/b.txt"))

		writeFile(t, workspace, "a.txt", "changed")
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))
		assert.Equal(t, "changed", readFile(t, shadowPath, "a.txt"))
	})

	t.Run("deletes removed files from shadow", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, workspace, "a.txt", "1")
		writeFile(t, workspace, "b.txt", "2")
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		require.NoError(t, os.Remove(filepath.Join(workspace, "b.txt")))
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		_, err := os.Stat(filepath.Join(shadowPath, "b.txt"))
		assert.True(t, os.IsNotExist(err))
		assert.Equal(t, "1", readFile(t, shadowPath, "a.txt"))
	})

	t.Run("represents a rename as delete plus add", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, workspace, "old.txt", "content")
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		require.NoError(t, os.Rename(
			filepath.Join(workspace, "old.txt"),
			filepath.Join(workspace, "new.txt")))
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		_, err := os.Stat(filepath.Join(shadowPath, "old.txt"))
		assert.True(t, os.IsNotExist(err))
		assert.Equal(t, "content", readFile(t, shadowPath, "new.txt"))
	})

	t.Run("never mirrors the mirror directory or vc metadata", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, workspace, "a.txt", "1")
		writeFile(t, shadowPath, VCMetaDirName+"/HEAD", "ref: refs/heads/main")
		writeFile(t, workspace, VCMetaDirName+"/config", "workspace git config")

		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		_, err := os.Stat(filepath.Join(shadowPath, MirrorDirName))
		assert.True(t, os.IsNotExist(err))
		// Shadow metadata untouched by the deletion phase.
		assert.Equal(t, "ref: refs/heads/main", readFile(t, shadowPath, VCMetaDirName+"/HEAD"))
	})

	t.Run("replaces a file with a directory of the same name", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, workspace, "thing", "file")
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		require.NoError(t, os.Remove(filepath.Join(workspace, "thing")))
		writeFile(t, workspace, "thing/nested.txt", "dir now")
		require.NoError(t, sync.PushToShadow(workspace, shadowPath))

		assert.Equal(t, "dir now", readFile(t, shadowPath, "thing/nested.txt"))
	})
}

func TestPullFromShadow(t *testing.T) {
	sync := NewSynchronizer(zap.NewNop())

	t.Run("restores an exact mirror", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, shadowPath, "a.txt", "1")
		writeFile(t, shadowPath, "sub/b.txt", "2")
		writeFile(t, workspace, "extra.txt", "should disappear")
		writeFile(t, workspace, "a.txt", "stale")

		require.NoError(t, sync.PullFromShadow(workspace, shadowPath))

		assert.Equal(t, "1", readFile(t, workspace, "a.txt"))
		assert.Equal(t, "2", readFile(t, workspace, "sub/b.txt"))
		_, err := os.Stat(filepath.Join(workspace, "extra.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("preserves the mirror directory itself", func(t *testing.T) {
		workspace, shadowPath := setupTrees(t)
		writeFile(t, shadowPath, "a.txt", "1")

		require.NoError(t, sync.PullFromShadow(workspace, shadowPath))

		info, err := os.Stat(filepath.Join(workspace, MirrorDirName))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}
