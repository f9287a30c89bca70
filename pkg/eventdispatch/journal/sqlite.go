package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the failure journal to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal.
// The path should be a file path (e.g., "./failures.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Each :memory: connection is its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS failures (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			dispatcher TEXT NOT NULL,
			listener_key TEXT NOT NULL,
			event TEXT NOT NULL,
			error TEXT NOT NULL,
			panic INTEGER NOT NULL,
			stack TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_failures_listener_key
		ON failures(listener_key)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO failures (id, dispatcher, listener_key, event, error, panic, stack, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Dispatcher, rec.ListenerKey, rec.Event, rec.Error, rec.Panic, rec.Stack,
		rec.OccurredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateID
		}
		return fmt.Errorf("append failure record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Record, error) {
	return s.query(`
		SELECT id, dispatcher, listener_key, event, error, panic, stack, occurred_at
		FROM failures
		ORDER BY seq
		LIMIT ?
	`, sqlLimit(limit))
}

// ListByListener implements Store.
func (s *SQLiteStore) ListByListener(listenerKey string, limit int) ([]Record, error) {
	return s.query(`
		SELECT id, dispatcher, listener_key, event, error, panic, stack, occurred_at
		FROM failures
		WHERE listener_key = ?
		ORDER BY seq
		LIMIT ?
	`, listenerKey, sqlLimit(limit))
}

func (s *SQLiteStore) query(q string, args ...any) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list failure records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var occurredAt string
		if err := rows.Scan(&rec.ID, &rec.Dispatcher, &rec.ListenerKey, &rec.Event,
			&rec.Error, &rec.Panic, &rec.Stack, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan failure record: %w", err)
		}
		rec.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure records: %w", err)
	}
	return records, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM failures WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete failure record: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM failures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failure records: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
