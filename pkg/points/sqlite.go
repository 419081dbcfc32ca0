package points

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore is a Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB

	addStmt   *sql.Stmt
	totalStmt *sql.Stmt
}

const pointsSchema = `
CREATE TABLE IF NOT EXISTS warning_points (
	subject_id TEXT NOT NULL,
	category   TEXT NOT NULL,
	total      REAL NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (subject_id, category)
);
`

// NewSQLiteStore opens (and if needed creates) the points database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(pointsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteStore{db: db}

	s.addStmt, err = db.Prepare(`INSERT INTO warning_points (subject_id, category, total, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (subject_id, category) DO UPDATE SET total = total + excluded.total, updated_at = excluded.updated_at`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare add statement: %w", err)
	}
	s.totalStmt, err = db.Prepare(`SELECT total FROM warning_points WHERE subject_id = ? AND category = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare total statement: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Add(ctx context.Context, subject uuid.UUID, category string, amount float64) (float64, error) {
	if _, err := s.addStmt.ExecContext(ctx, subject.String(), category, amount, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("failed to add points in %q: %w", category, err)
	}
	return s.Total(ctx, subject, category)
}

func (s *SQLiteStore) Total(ctx context.Context, subject uuid.UUID, category string) (float64, error) {
	var total float64
	err := s.totalStmt.QueryRowContext(ctx, subject.String(), category).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read points in %q: %w", category, err)
	}
	return total, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
