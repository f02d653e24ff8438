// Package shadow owns the hidden mirror repository kept under each
// workspace and the synchronization between the two trees.
package shadow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"rewind/internal/vcerrors"

	"go.uber.org/zap"
)

const (
	// MirrorDirName is the reserved directory nested under the workspace
	// root that holds the shadow repository.
	MirrorDirName = ".rewind"
	// VCMetaDirName is the version-control metadata directory inside the
	// shadow; it must never be mirrored back onto the workspace.
	VCMetaDirName = ".git"
)

// RepoInitializer prepares an empty version-control repository in dir,
// including a fixed committer identity so automated commits never need
// interactive configuration.
type RepoInitializer interface {
	InitRepo(ctx context.Context, dir string) error
}

// Store maps workspace roots to their shadow repositories. The registry
// is owned by the instance rather than being process-global so multiple
// engines can coexist in one process.
type Store struct {
	mu       sync.Mutex
	registry map[string]string
	init     RepoInitializer
	logger   *zap.Logger
}

func NewStore(init RepoInitializer, logger *zap.Logger) *Store {
	return &Store{
		registry: make(map[string]string),
		init:     init,
		logger:   logger,
	}
}

// Ensure returns the shadow path for a workspace, creating and
// initializing the mirror repository on first use. Repeated calls for
// the same workspace are cheap registry lookups.
func (s *Store) Ensure(ctx context.Context, workspace string) (string, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return "", fmt.Errorf("resolving workspace path: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if shadowPath, ok := s.registry[abs]; ok {
		return shadowPath, nil
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", vcerrors.WorkspaceNotFound(abs)
	}

	shadowPath := filepath.Join(abs, MirrorDirName)
	if err := os.MkdirAll(shadowPath, 0755); err != nil {
		return "", fmt.Errorf("creating shadow directory: %w", err)
	}

	if !HasRepository(abs) {
		if err := s.init.InitRepo(ctx, shadowPath); err != nil {
			return "", vcerrors.OperationFailed("initializing shadow repository", err)
		}
		s.logger.Info("initialized shadow repository",
			zap.String("workspace", abs),
			zap.String("shadow", shadowPath))
	}

	s.registry[abs] = shadowPath
	return shadowPath, nil
}

// Lookup returns the registered shadow path without creating anything.
func (s *Store) Lookup(workspace string) (string, bool) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	shadowPath, ok := s.registry[abs]
	return shadowPath, ok
}

// HasRepository reports whether a shadow repository exists on disk for
// the workspace. Pure existence check, no side effects.
func HasRepository(workspace string) bool {
	metaDir := filepath.Join(workspace, MirrorDirName, VCMetaDirName)
	info, err := os.Stat(metaDir)
	return err == nil && info.IsDir()
}
