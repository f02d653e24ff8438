package shadow

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Synchronizer reconciles a workspace tree with its shadow tree. Both
// directions are whole-tree and non-incremental: correctness over speed,
// since workspaces are expected to be modest (source trees, note vaults).
type Synchronizer struct {
	logger *zap.Logger
}

func NewSynchronizer(logger *zap.Logger) *Synchronizer {
	return &Synchronizer{logger: logger}
}

// PushToShadow makes the shadow tree an exact mirror of the workspace
// tree. Deletions run before copies so a rename is observed by the
// version-control engine as delete+add, never as a stale partial state.
func (s *Synchronizer) PushToShadow(workspace, shadowPath string) error {
	// Phase 1: delete shadow entries that no longer exist in the workspace.
	stale, err := collectStale(shadowPath, workspace)
	if err != nil {
		return fmt.Errorf("scanning shadow tree: %w", err)
	}
	// Deepest paths first so files go before their parent directories.
	sort.Slice(stale, func(i, j int) bool { return len(stale[i]) > len(stale[j]) })
	for _, rel := range stale {
		if err := os.RemoveAll(filepath.Join(shadowPath, rel)); err != nil {
			return fmt.Errorf("removing %s from shadow: %w", rel, err)
		}
	}

	// Phase 2: copy new and modified entries from the workspace.
	return copyTree(workspace, shadowPath, s.logger)
}

// PullFromShadow clears the workspace (excluding the mirror directory)
// and copies the shadow's current tree into it. Used by revert to
// back-propagate a hard reset onto the live workspace.
func (s *Synchronizer) PullFromShadow(workspace, shadowPath string) error {
	entries, err := os.ReadDir(workspace)
	if err != nil {
		return fmt.Errorf("reading workspace: %w", err)
	}
	for _, entry := range entries {
		if skipName(entry.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(workspace, entry.Name())); err != nil {
			return fmt.Errorf("clearing workspace entry %s: %w", entry.Name(), err)
		}
	}

	return copyTree(shadowPath, workspace, s.logger)
}

// skipName filters the mirror directory on the workspace side and the
// version-control metadata directory on the shadow side. The workspace's
// own .git (if any) is treated like the mirror: never synced, never
// cleared, since mirroring it would collide with the shadow's metadata.
func skipName(name string) bool {
	return name == MirrorDirName || name == VCMetaDirName
}

// collectStale returns paths (relative) present under dst but absent
// from src, or present with a different kind (file vs directory).
func collectStale(dst, src string) ([]string, error) {
	var stale []string
	err := filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if skipName(d.Name()) || containsSkipped(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		srcInfo, err := os.Stat(filepath.Join(src, rel))
		if os.IsNotExist(err) || (err == nil && srcInfo.IsDir() != d.IsDir()) {
			stale = append(stale, rel)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		return err
	})
	return stale, err
}

func containsSkipped(rel string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if skipName(part) {
			return true
		}
	}
	return false
}

func copyTree(src, dst string, logger *zap.Logger) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if skipName(d.Name()) || containsSkipped(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if !d.Type().IsRegular() {
			// Symlinks and other irregular files are not mirrored.
			logger.Warn("skipping irregular file",
				zap.String("path", rel))
			return nil
		}

		return copyFile(path, target, d)
	})
}

// copyFile writes src over dst when the contents differ, preserving the
// source file mode.
func copyFile(src, dst string, d fs.DirEntry) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	if existing, err := os.ReadFile(dst); err == nil && bytes.Equal(existing, content) {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("getting file info for %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", dst, err)
	}

	if err := os.WriteFile(dst, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
