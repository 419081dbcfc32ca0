package manager

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the rule and message directories and triggers a reload
// after changes settle. Editor save bursts (write + rename + chmod) collapse
// into a single reload through the debounce window.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	paths    []string
}

// NewWatcher creates a watcher over the given directories.
func NewWatcher(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{watcher: fw, logger: logger, debounce: debounce, paths: paths}, nil
}

// Watch blocks until the context is cancelled, invoking onReload after each
// settled change burst. A failing reload is logged and watching continues.
func (w *Watcher) Watch(ctx context.Context, onReload func() error) error {
	for _, path := range w.paths {
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
	}

	w.logger.Info("rule watcher started",
		"paths", strings.Join(w.paths, ","),
		"debounce_ms", w.debounce.Milliseconds(),
	)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rule watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("rule file changed", "file", event.Name, "op", event.Op.String())
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			pending = false
			if err := onReload(); err != nil {
				w.logger.Error("reload failed, keeping previous rules", "error", err)
			}
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".rs" {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
