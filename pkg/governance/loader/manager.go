package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mercator-hq/minerva/pkg/governance"
)

// Manager ties a loader, a watch path, and an engine together: Load
// replaces the engine's policy set from disk, Watch keeps it in sync.
type Manager struct {
	loader  *Loader
	engine  *governance.Engine
	logger  *slog.Logger
	path    string
	watcher *Watcher
}

// NewManager creates a manager for the given path. A nil config uses
// defaults for both loading and watching.
func NewManager(path string, engine *governance.Engine, config *Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		loader: NewLoader(config),
		engine: engine,
		logger: logger.With("component", "policy_manager"),
		path:   path,
	}
}

// Load reads the path and atomically replaces the engine's policies.
// When a directory loads partially, the policies that did load are
// applied and the failures are logged; a load that produces no policies
// leaves the engine's previous set in place.
func (m *Manager) Load() error {
	policies, err := m.loader.LoadPath(m.path)
	if err != nil {
		var errList *ErrorList
		if !errors.As(err, &errList) || len(policies) == 0 {
			return err
		}
		m.logger.Warn("some policy files failed to load",
			"path", m.path,
			"loaded", len(policies),
			"failed", len(errList.Errors),
			"errors", errList.Error(),
		)
	}
	if err := m.engine.ReplaceAll(policies); err != nil {
		return fmt.Errorf("replacing engine policies: %w", err)
	}
	m.logger.Info("policies loaded", "path", m.path, "count", len(policies))
	return nil
}

// Watch loads once, then blocks reloading on file changes until the
// context is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	if err := m.Load(); err != nil {
		return err
	}

	cfg := DefaultWatcherConfig()
	cfg.Path = m.path
	cfg.Extensions = m.loader.config.AllowedExtensions
	cfg.SkipHidden = m.loader.config.SkipHidden

	watcher, err := NewWatcher(cfg, m.logger)
	if err != nil {
		return err
	}
	m.watcher = watcher

	return watcher.Watch(ctx, m.Load)
}

// Stop stops a running watch.
func (m *Manager) Stop() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Stop()
}

// LoadPath loads a file or a directory depending on what path names.
func (l *Loader) LoadPath(path string) ([]*governance.Policy, error) {
	isDir, err := l.isDirectory(path)
	if err != nil {
		return nil, err
	}
	if isDir {
		return l.LoadFromDirectory(path)
	}
	return l.LoadFromFile(path)
}

func (l *Loader) isDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, &LoadError{FilePath: path, Message: "failed to access path", Cause: err}
	}
	return info.IsDir(), nil
}
