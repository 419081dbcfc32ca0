package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mineguard/warden/pkg/policy/engine"
	"mineguard/warden/pkg/telemetry"
)

// Manager ties the loader to an engine: it performs transactional reloads
// and optionally keeps reloading on filesystem changes. A failed reload
// leaves the engine on its previous snapshot.
type Manager struct {
	loader      *Loader
	engine      *engine.Engine
	rulesDir    string
	messagesDir string
	logger      *slog.Logger
	metrics     *telemetry.Metrics

	mu     sync.Mutex
	onSwap []func(*engine.Snapshot)
}

// New creates a manager for the given engine and directories.
func New(loader *Loader, eng *engine.Engine, rulesDir, messagesDir string, logger *slog.Logger, metrics *telemetry.Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewNopMetrics()
	}
	return &Manager{
		loader:      loader,
		engine:      eng,
		rulesDir:    rulesDir,
		messagesDir: messagesDir,
		logger:      logger,
		metrics:     metrics,
	}
}

// OnSwap registers a hook invoked after every successful snapshot swap. The
// broadcaster uses it to reschedule timed groups.
func (m *Manager) OnSwap(fn func(*engine.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSwap = append(m.onSwap, fn)
}

// Reload loads both directories and swaps the snapshot in. On error the
// previous snapshot stays active and the error describes every broken
// declaration.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	started := time.Now()
	snapshot, err := m.loader.Load(m.rulesDir, m.messagesDir)
	if err != nil {
		m.metrics.RecordReload("failure")
		return err
	}

	m.engine.Swap(snapshot)
	m.metrics.RecordReload("success")
	m.logger.Info("snapshot swapped", "duration", time.Since(started))

	for _, fn := range m.onSwap {
		fn(snapshot)
	}
	return nil
}

// Watch blocks, reloading on filesystem changes until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := NewWatcher([]string{m.rulesDir, m.messagesDir}, debounce, m.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	return watcher.Watch(ctx, m.Reload)
}
