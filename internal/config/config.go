// Package config defines service configuration and how it is loaded.
package config

import (
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects where state is persisted: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string used by the postgres driver.
	PostgresDSN string `koanf:"postgres_dsn"`

	// PersistAsync moves store writes off the request path.
	PersistAsync bool `koanf:"persist_async"`

	// PersistQueueSize bounds pending writes when PersistAsync is set.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// CoinTossDelayMS is how long a random toss spins before landing.
	CoinTossDelayMS int `koanf:"coin_toss_delay_ms"`

	// MaxSubstitutions caps regular substitutions per team per set; 0 lifts the cap.
	MaxSubstitutions int `koanf:"max_substitutions"`

	// DedupeSize sets how many idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// CORSAllowedOrigins is a comma separated list of browser origins.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		StoreDriver:        "sqlite",
		SQLitePath:         "courtside.db",
		PersistAsync:       false,
		PersistQueueSize:   256,
		CoinTossDelayMS:    2000,
		MaxSubstitutions:   6,
		DedupeSize:         1024,
		CORSAllowedOrigins: "*",
	}
}

// Origins splits CORSAllowedOrigins into its entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
