package worker

import (
	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithName sets the writer name for identification and logging.
func WithName(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(logger logger.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithAck registers a callback run after every store attempt.
func WithAck(fn AckFunc) Option {
	return func(w *Writer) {
		if fn != nil {
			w.ack = fn
		}
	}
}

// WithClock replaces the clock used for latency metrics.
func WithClock(c clockwork.Clock) Option {
	return func(w *Writer) {
		if c != nil {
			w.clock = c
		}
	}
}
