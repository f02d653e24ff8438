// Package watch auto-checkpoints a workspace on filesystem activity.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rewind/internal/backend"
	"rewind/internal/shadow"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// AutoCheckpointer watches a workspace tree and checkpoints it after
// filesystem events settle. Events are debounced so a burst of writes
// from one tool run produces a single checkpoint.
type AutoCheckpointer struct {
	workspace string
	backend   backend.Backend
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

func NewAutoCheckpointer(workspace string, b backend.Backend, logger *zap.Logger) (*AutoCheckpointer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ac := &AutoCheckpointer{
		workspace: workspace,
		backend:   b,
		watcher:   watcher,
		debounce:  defaultDebounce,
		logger:    logger,
		done:      make(chan struct{}),
	}

	if err := ac.addWatches(); err != nil {
		watcher.Close()
		return nil, err
	}

	go ac.watchLoop()
	return ac, nil
}

func (ac *AutoCheckpointer) addWatches() error {
	return filepath.WalkDir(ac.workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ac.shouldIgnore(path) {
			return fs.SkipDir
		}
		return ac.watcher.Add(path)
	})
}

func (ac *AutoCheckpointer) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(ac.workspace, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		switch part {
		case shadow.MirrorDirName, shadow.VCMetaDirName, "node_modules", "vendor":
			return true
		}
	}
	return false
}

func (ac *AutoCheckpointer) watchLoop() {
	for {
		select {
		case <-ac.done:
			return
		case event, ok := <-ac.watcher.Events:
			if !ok {
				return
			}
			ac.handleEvent(event)
		case err, ok := <-ac.watcher.Errors:
			if !ok {
				return
			}
			ac.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (ac *AutoCheckpointer) handleEvent(event fsnotify.Event) {
	if ac.shouldIgnore(event.Name) {
		return
	}

	// New directories need their own watch before anything inside them
	// produces events.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = ac.watcher.Add(event.Name)
		}
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.timer != nil {
		ac.timer.Stop()
	}
	ac.timer = time.AfterFunc(ac.debounce, ac.flush)
}

func (ac *AutoCheckpointer) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	outcome, err := ac.backend.Checkpoint(ctx, ac.workspace, "auto checkpoint")
	if err != nil {
		ac.logger.Warn("auto checkpoint failed",
			zap.String("workspace", ac.workspace),
			zap.Error(err))
		return
	}
	if outcome.NoChanges {
		return
	}
	ac.logger.Info("auto checkpoint created",
		zap.String("workspace", ac.workspace),
		zap.String("hash", outcome.Commit.Hash))
}

func (ac *AutoCheckpointer) Close() error {
	ac.mu.Lock()
	if ac.timer != nil {
		ac.timer.Stop()
	}
	ac.mu.Unlock()
	close(ac.done)
	return ac.watcher.Close()
}
