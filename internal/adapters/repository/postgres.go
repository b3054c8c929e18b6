package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/courtside/pkg/metrics"
)

// PostgresStore keeps state in a Postgres table shared by every instance
// pointed at the same database.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string

	saveSQL string
	loadSQL string
}

// NewPostgresStore connects to dsn and ensures the state table exists.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn must not be empty")
	}
	o := newOptions(opts)
	if !tableName.MatchString(o.table) {
		return nil, fmt.Errorf("%q: %w", o.table, ErrInvalidTable)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	cfg.MaxConns = o.maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{
		pool:  pool,
		table: o.table,
		saveSQL: fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, o.table),
		loadSQL: fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, o.table),
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, o.table)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return s, nil
}

// Save upserts value under key.
func (s *PostgresStore) Save(ctx context.Context, key string, value []byte) error {
	defer observe(DriverPostgres, "save", time.Now())
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.pool.Exec(ctx, s.saveSQL, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	metrics.RecordPersistWrite(string(DriverPostgres))
	return nil
}

// Load reads the value under key.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	defer observe(DriverPostgres, "load", time.Now())
	var v []byte
	err := s.pool.QueryRow(ctx, s.loadSQL, key).Scan(&v)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return v, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
