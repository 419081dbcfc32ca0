package keystore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "keys.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	subject := uuid.New()
	other := uuid.New()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Get(ctx, subject, "muted"); err != nil || ok {
				t.Fatalf("Get(absent) = ok=%v err=%v", ok, err)
			}

			if err := store.Set(ctx, subject, "muted", "true"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			value, ok, err := store.Get(ctx, subject, "muted")
			if err != nil || !ok || value != "true" {
				t.Fatalf("Get() = %q, %v, %v", value, ok, err)
			}

			// Keys are scoped per subject.
			if _, ok, _ := store.Get(ctx, other, "muted"); ok {
				t.Error("other subject sees the key")
			}

			// Overwrite.
			if err := store.Set(ctx, subject, "muted", "false"); err != nil {
				t.Fatalf("Set(overwrite) error = %v", err)
			}
			if value, _, _ := store.Get(ctx, subject, "muted"); value != "false" {
				t.Errorf("after overwrite Get() = %q, want false", value)
			}

			// Delete, then delete again (no error).
			if err := store.Delete(ctx, subject, "muted"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, ok, _ := store.Get(ctx, subject, "muted"); ok {
				t.Error("key survived delete")
			}
			if err := store.Delete(ctx, subject, "muted"); err != nil {
				t.Errorf("Delete(absent) error = %v", err)
			}
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.db")
	subject := uuid.New()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Set(ctx, subject, "congratulated", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, subject, "congratulated")
	if err != nil || !ok || value != "true" {
		t.Fatalf("after reopen Get() = %q, %v, %v", value, ok, err)
	}
}
