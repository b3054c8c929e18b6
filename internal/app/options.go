package service

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already opened store instead of opening one at Start.
// The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDriver selects the store opened at Start.
func WithDriver(driver repository.Driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
			s.dsn = dsn
		}
	}
}

// WithAsyncPersistence writes state behind the request path through a queue
// of queueSize pending writes.
func WithAsyncPersistence(queueSize int) Option {
	return func(s *Service) {
		s.async = true
		if queueSize > 0 {
			s.queueSize = queueSize
		}
	}
}

// WithCoinTossDelay sets how long a random toss spins. Zero lands it at once.
func WithCoinTossDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.tossDelay = d
		}
	}
}

// WithClock replaces the clock used for coin toss pacing and uptime.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTossSeed makes random coin tosses reproducible.
func WithTossSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}

// WithMaxSubstitutions limits regular substitutions per team per set.
// Zero means unlimited.
func WithMaxSubstitutions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSubs = n
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
