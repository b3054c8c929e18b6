package repository

import (
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/pkg/logger"
)

// Default store configuration constants.
const (
	defaultTable       = "referee_state"
	defaultBusyTimeout = 5 * time.Second
	defaultMaxConns    = 4
	defaultQueueSize   = 256
	closeTimeout       = 5 * time.Second
	flushInterval      = 5 * time.Millisecond
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type options struct {
	table       string
	busyTimeout time.Duration
	maxConns    int32
	queueSize   int
	logger      logger.Logger
	clock       clockwork.Clock
}

func newOptions(opts []Option) options {
	o := options{
		table:       defaultTable,
		busyTimeout: defaultBusyTimeout,
		maxConns:    defaultMaxConns,
		queueSize:   defaultQueueSize,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithTable sets the SQL table holding the state.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithMaxConns caps the Postgres pool size.
func WithMaxConns(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithQueueSize sets how many writes AsyncStore may hold pending.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithLogger sets the logger used by AsyncStore.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock AsyncStore stamps writes with and polls on while
// flushing. A fake clock must be advanced for Flush to notice drained writes.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}
