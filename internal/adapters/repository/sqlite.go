package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/courtside/pkg/metrics"
)

// SQLiteStore keeps state in a single local database file.
type SQLiteStore struct {
	db    *sql.DB
	table string

	saveSQL string
	loadSQL string
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// state table exists.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path must not be empty")
	}
	o := newOptions(opts)
	if !tableName.MatchString(o.table) {
		return nil, fmt.Errorf("%q: %w", o.table, ErrInvalidTable)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, o.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:    db,
		table: o.table,
		saveSQL: fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, o.table),
		loadSQL: fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, o.table),
	}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	)`, s.table))
	return err
}

// Save upserts value under key.
func (s *SQLiteStore) Save(ctx context.Context, key string, value []byte) error {
	defer observe(DriverSQLite, "save", time.Now())
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, s.saveSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	metrics.RecordPersistWrite(string(DriverSQLite))
	return nil
}

// Load reads the value under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	defer observe(DriverSQLite, "load", time.Now())
	var v []byte
	err := s.db.QueryRowContext(ctx, s.loadSQL, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return v, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
