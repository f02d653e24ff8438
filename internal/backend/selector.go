package backend

import (
	"fmt"
	"sync"

	"rewind/internal/engine"
	"rewind/internal/gitvc"
	"rewind/internal/vcerrors"
	shared "rewind/shared/types"

	"go.uber.org/zap"
)

// Options controls backend selection, evaluated once at construction.
type Options struct {
	// Type forces a backend when set to real or mock. Auto (or empty)
	// probes the environment.
	Type shared.BackendType
	// AllowMockFallback permits the mock backend when the git channel
	// is unavailable. Callers in production-like contexts disable it.
	AllowMockFallback bool
	// channelAvailable overrides the git probe in tests.
	channelAvailable func() bool
}

func DefaultOptions() Options {
	return Options{
		Type:              shared.BackendAuto,
		AllowMockFallback: true,
	}
}

// Select picks a backend implementation:
//  1. a forced type wins; forcing real without the git channel is a
//     hard failure, never a silent fallback
//  2. otherwise the real backend is used when the channel is present
//  3. otherwise the mock backend, if fallback is permitted
//  4. otherwise BackendUnavailable
func Select(opts Options, logger *zap.Logger) (Backend, error) {
	probe := opts.channelAvailable
	if probe == nil {
		probe = gitvc.Available
	}

	newRealBackend := func() Backend {
		return newReal(engine.New(gitvc.New(logger), logger))
	}

	switch opts.Type {
	case shared.BackendReal:
		if !probe() {
			return nil, vcerrors.BackendUnavailable("real backend forced but git is not available")
		}
		return newRealBackend(), nil
	case shared.BackendMock:
		return newMock(), nil
	case shared.BackendAuto, "":
	default:
		return nil, fmt.Errorf("unknown backend type: %s", opts.Type)
	}

	if probe() {
		return newRealBackend(), nil
	}
	if opts.AllowMockFallback {
		logger.Warn("git unavailable, falling back to mock backend")
		return newMock(), nil
	}
	return nil, vcerrors.BackendUnavailable("git unavailable and mock fallback not permitted")
}

// Manager holds the selected backend for its lifetime and supports
// swapping it at runtime.
type Manager struct {
	mu      sync.RWMutex
	backend Backend
	opts    Options
	logger  *zap.Logger
}

func NewManager(opts Options, logger *zap.Logger) (*Manager, error) {
	b, err := Select(opts, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("backend selected",
		zap.String("type", string(b.GetBackendType())))
	return &Manager{backend: b, opts: opts, logger: logger}, nil
}

// Backend returns the active implementation.
func (m *Manager) Backend() Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// SwitchBackend replaces the active backend, disposing the previous
// instance first. The previous backend stays active when selection of
// the new one fails.
func (m *Manager) SwitchBackend(backendType shared.BackendType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := m.opts
	opts.Type = backendType
	next, err := Select(opts, m.logger)
	if err != nil {
		return err
	}

	if err := m.backend.Dispose(); err != nil {
		m.logger.Warn("disposing previous backend", zap.Error(err))
	}
	m.backend = next
	m.logger.Info("backend switched",
		zap.String("type", string(next.GetBackendType())))
	return nil
}

func (m *Manager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.Dispose()
}
