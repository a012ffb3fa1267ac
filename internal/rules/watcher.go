// Package rules watches the rule and script directories and pushes
// hot-reload notifications to a running engine when their contents change.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called when a rule or script file change is detected
type ChangeHandler func(path string)

// Watcher watches rule/script directories for changes
type Watcher struct {
	paths    []string
	handler  ChangeHandler
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	lastFire time.Time
	debounce time.Duration
}

// Config holds watcher configuration
type Config struct {
	// Paths are the directories to watch. Missing entries are skipped at
	// Start with a warning, not an error, since the rules directory is
	// created lazily by the rule editor.
	Paths    []string
	Handler  ChangeHandler
	Logger   *slog.Logger
	Debounce time.Duration // debounce period to avoid rapid-fire reloads
}

// New creates a new rules watcher
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("at least one watch path is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("change handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 1 * time.Second
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	paths := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", p, err)
		}
		paths = append(paths, abs)
	}

	return &Watcher{
		paths:    paths,
		handler:  cfg.Handler,
		logger:   cfg.Logger.With("component", "rules_watcher"),
		watcher:  fsWatcher,
		debounce: cfg.Debounce,
	}, nil
}

// Start begins watching and returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	watched := 0
	for _, p := range w.paths {
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("Skipping unwatchable path", "path", p, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no watchable paths among %v", w.paths)
	}

	w.logger.Info("Rules watcher started",
		"paths", watched,
		"debounce", w.debounce)

	go w.watchLoop(ctx)

	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Rules watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.logger.Warn("Rules watcher events channel closed")
				return
			}

			// Writes, new files, and deletions all change the effective
			// rule set.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.handleChange(event)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.logger.Warn("Rules watcher errors channel closed")
				return
			}
			w.logger.Warn("Rules watcher error", "error", err)
		}
	}
}

// handleChange processes a file change event with debouncing
func (w *Watcher) handleChange(event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if time.Since(w.lastFire) < w.debounce {
		w.logger.Debug("Rule change debounced",
			"event", event.Op.String(),
			"since_last", time.Since(w.lastFire))
		return
	}

	w.logger.Info("Rule files changed, notifying engine",
		"path", event.Name,
		"event", event.Op.String())

	w.handler(event.Name)
	w.lastFire = time.Now()
}

// Stop stops the file watcher
func (w *Watcher) Stop() error {
	w.logger.Debug("Stopping rules watcher")
	return w.watcher.Close()
}
