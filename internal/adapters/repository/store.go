// Package repository persists referee state as key-value pairs.
//
// Every store keeps raw bytes under string keys and hands back copies, so a
// caller may reuse its buffers after Save returns.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/courtside/pkg/metrics"
)

// Store provides read/write access to persisted state.
type Store interface {
	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Load returns the value saved under key.
	// Returns ErrNotFound if the key was never saved.
	Load(ctx context.Context, key string) ([]byte, error)

	// Close releases the store's resources.
	Close() error
}

// Driver names a Store implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts a driver name, case-insensitive.
func ParseDriver(v string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(v))); d {
	case DriverMemory, DriverSQLite, DriverPostgres:
		return d, nil
	}
	return "", fmt.Errorf("%q: %w", v, ErrUnknownDriver)
}

// Open creates the store for driver. dsn is a file path for SQLite and a
// connection string for Postgres; memory ignores it.
func Open(ctx context.Context, driver Driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn, opts...)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn, opts...)
	}
	return nil, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
}

func observe(driver Driver, op string, start time.Time) {
	metrics.RecordPersistLatency(string(driver), op, float64(time.Since(start).Microseconds())/1000)
}
