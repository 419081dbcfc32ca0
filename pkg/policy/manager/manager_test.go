package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mineguard/warden/pkg/policy/engine"
	"mineguard/warden/pkg/rulelang/ast"
)

func newManager(t *testing.T, rulesDir, messagesDir string) (*Manager, *engine.Engine) {
	t.Helper()
	eng := engine.New(engine.Deps{}, engine.Options{})
	loader := NewLoader(time.Second, testLogger())
	return New(loader, eng, rulesDir, messagesDir, testLogger(), nil), eng
}

func TestReloadSwapsSnapshot(t *testing.T) {
	rulesDir, messagesDir := writeFiles(t, map[string]string{
		"chat.rs": "match \\bbad\\b\nthen deny\n",
	})
	m, eng := newManager(t, rulesDir, messagesDir)

	if eng.Snapshot() != nil {
		t.Fatal("engine has a snapshot before the first load")
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := len(eng.Snapshot().Rules[ast.RuleChat]); got != 1 {
		t.Errorf("chat rules = %d, want 1", got)
	}
}

func TestFailedReloadKeepsPreviousSnapshot(t *testing.T) {
	rulesDir, messagesDir := writeFiles(t, map[string]string{
		"chat.rs": "match \\bbad\\b\nthen deny\n",
	})
	m, eng := newManager(t, rulesDir, messagesDir)

	if err := m.Reload(); err != nil {
		t.Fatalf("initial Reload() error = %v", err)
	}
	previous := eng.Snapshot()

	// Break the file, reload again.
	if err := os.WriteFile(filepath.Join(rulesDir, "chat.rs"), []byte("match (broken\nthen deny\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err == nil {
		t.Fatal("expected reload error")
	}

	if eng.Snapshot() != previous {
		t.Error("failed reload replaced the snapshot")
	}
}

func TestOnSwapHookRuns(t *testing.T) {
	rulesDir, messagesDir := writeFiles(t, map[string]string{})
	m, _ := newManager(t, rulesDir, messagesDir)

	var swapped *engine.Snapshot
	m.OnSwap(func(s *engine.Snapshot) { swapped = s })

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if swapped == nil {
		t.Error("OnSwap hook did not run")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	rulesDir, messagesDir := writeFiles(t, map[string]string{
		"chat.rs": "match \\bone\\b\nthen deny\n",
	})
	m, eng := newManager(t, rulesDir, messagesDir)
	if err := m.Reload(); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 1)
	m.OnSwap(func(*engine.Snapshot) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx, 50*time.Millisecond) }()

	// Give the watcher a moment to register the directories.
	time.Sleep(200 * time.Millisecond)

	src := "match \\bone\\b\nthen deny\n\nmatch \\btwo\\b\nthen deny\n"
	if err := os.WriteFile(filepath.Join(rulesDir, "chat.rs"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never triggered a reload")
	}

	if got := len(eng.Snapshot().Rules[ast.RuleChat]); got != 2 {
		t.Errorf("chat rules after reload = %d, want 2", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
