package keystore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore is a Store backed by SQLite. It uses a write-ahead log for
// better concurrent read performance; single-writer semantics are fine here
// because key writes only happen on rule matches.
type SQLiteStore struct {
	db *sql.DB

	getStmt    *sql.Stmt
	setStmt    *sql.Stmt
	deleteStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite key store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

const keySchema = `
CREATE TABLE IF NOT EXISTS subject_keys (
	subject_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (subject_id, key)
);
`

// NewSQLiteStore opens (and if needed creates) the key database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig opens a key store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(keySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteStore{db: db}

	s.getStmt, err = db.Prepare(`SELECT value FROM subject_keys WHERE subject_id = ? AND key = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}
	s.setStmt, err = db.Prepare(`INSERT INTO subject_keys (subject_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (subject_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare set statement: %w", err)
	}
	s.deleteStmt, err = db.Prepare(`DELETE FROM subject_keys WHERE subject_id = ? AND key = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context, subject uuid.UUID, key string) (string, bool, error) {
	var value string
	err := s.getStmt.QueryRowContext(ctx, subject.String(), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, subject uuid.UUID, key, value string) error {
	if _, err := s.setStmt.ExecContext(ctx, subject.String(), key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, subject uuid.UUID, key string) error {
	if _, err := s.deleteStmt.ExecContext(ctx, subject.String(), key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
