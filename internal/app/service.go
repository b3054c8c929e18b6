// Package service wires the match engine to its store and serializes the
// operator commands the HTTP API sends it.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/internal/domain/dedupe"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/match"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize  = 256
	defaultDedupeSize = 1024
	defaultTossDelay  = 2 * time.Second
)

// Command is an engine transition run under the service lock.
type Command func(ctx context.Context, e *match.Engine) error

// SetScore is the final score of a finished set.
type SetScore struct {
	Number int         `json:"number"`
	Score  match.Score `json:"score"`
	Winner types.Side  `json:"winner"`
}

// View is what the operator screen renders after every command.
type View struct {
	Match            match.Match `json:"match"`
	Step             types.Step  `json:"step"`
	Winner           types.Side  `json:"winner,omitempty"`
	SetScores        []SetScore  `json:"setScores"`
	MaxSubstitutions int         `json:"maxSubstitutions"`
}

// Service owns the engine and the store it persists to.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	engine  *match.Engine
	deduper dedupe.Deduper

	// Configuration
	driver     repository.Driver
	dsn        string
	async      bool
	queueSize  int
	tossDelay  time.Duration
	seed       *int64
	maxSubs    int
	dedupeSize int
	clock      clockwork.Clock

	// State
	started   bool
	startedAt time.Time
	tossing   atomic.Bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver:     repository.DriverMemory,
		queueSize:  defaultQueueSize,
		tossDelay:  defaultTossDelay,
		maxSubs:    match.DefaultMaxSubst,
		dedupeSize: defaultDedupeSize,
		clock:      clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and restores the saved match.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting referee service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.driver, s.dsn)
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.driver, err)
		}
		s.store = store
	}
	if s.async {
		s.store = repository.NewAsyncStore(s.store,
			repository.WithQueueSize(s.queueSize),
			repository.WithLogger(s.logger.Named("persist")),
			repository.WithClock(s.clock),
		)
	}

	resolverOpts := []cointoss.Option{cointoss.WithDelay(s.tossDelay), cointoss.WithClock(s.clock)}
	if s.seed != nil {
		resolverOpts = append(resolverOpts, cointoss.WithSeed(*s.seed))
	}
	s.engine = match.New(s.store,
		match.WithResolver(cointoss.NewResolver(resolverOpts...)),
		match.WithMaxSubstitutions(s.maxSubs),
		match.WithLogger(s.logger.Named("match")),
	)
	if err := s.engine.Load(ctx); err != nil {
		_ = s.store.Close()
		s.store = nil
		return fmt.Errorf("load match: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.startedAt = s.clock.Now()
	s.logger.Info(ctx, "referee service started",
		logger.String("driver", string(s.driver)),
		logger.Bool("async", s.async),
		logger.Duration("tossDelay", s.tossDelay),
		logger.String("step", s.engine.Step().String()),
		logger.Int("maxSubstitutions", s.maxSubs),
	)

	return nil
}

// Stop flushes pending writes and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping referee service...")

	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close store", logger.Error(err))
	}
	s.store = nil

	s.started = false
	s.logger.Info(context.Background(), "referee service stopped")
}

// Snapshot returns the current view.
func (s *Service) Snapshot() (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return View{}, ErrNotStarted
	}
	return s.view(), nil
}

// Candidates lists players selectable for slot p of side's lineup.
func (s *Service) Candidates(side types.Side, p lineup.Position) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine.Candidates(side, p)
}

// Bench lists side's players currently off court.
func (s *Service) Bench(side types.Side) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine.Bench(side)
}

// Do runs cmd against the engine. A non-empty key makes the command
// idempotent: a key seen before returns the current view with ErrDuplicate
// and cmd is not run. A key whose command was rejected is forgotten so the
// operator can retry it.
func (s *Service) Do(ctx context.Context, key string, cmd Command) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return View{}, ErrNotStarted
	}
	if s.duplicate(ctx, key) {
		return s.view(), ErrDuplicate
	}

	err := cmd(ctx, s.engine)
	if err != nil && !errors.Is(err, match.ErrSaveFailed) {
		s.deduper.Unrecord(ctx, key)
	}
	return s.view(), err
}

// TossCoin runs a random toss. The service lock is released while the coin
// spins so the operator screen keeps reading state.
func (s *Service) TossCoin(ctx context.Context, key string) (View, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return View{}, ErrNotStarted
	}
	if s.duplicate(ctx, key) {
		v := s.view()
		s.mu.Unlock()
		return v, ErrDuplicate
	}
	resolver, err := s.engine.PrepareToss(ctx)
	if err != nil {
		v := s.view()
		s.mu.Unlock()
		s.deduper.Unrecord(ctx, key)
		return v, err
	}
	s.mu.Unlock()

	if !s.tossing.CompareAndSwap(false, true) {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordRejected("toss_coin")
		v, _ := s.Snapshot()
		return v, ErrTossInProgress
	}
	defer s.tossing.Store(false)

	winner, err := resolver.Toss(ctx)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		v, _ := s.Snapshot()
		return v, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return View{}, ErrNotStarted
	}
	err = s.engine.DesignateWinner(ctx, cointoss.ModeRandom, winner)
	if err != nil && !errors.Is(err, match.ErrSaveFailed) {
		s.deduper.Unrecord(ctx, key)
	}
	return s.view(), err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"driver":           string(s.driver),
		"async":            s.async,
		"maxSubstitutions": s.maxSubs,
		"dedupeSize":       s.dedupeSize,
		"tossDelayMs":      s.tossDelay.Milliseconds(),
	}

	if s.started {
		m := s.engine.Snapshot()
		stats["uptimeSeconds"] = int64(s.clock.Since(s.startedAt).Seconds())
		stats["matchId"] = m.ID
		stats["step"] = s.engine.Step().String()
		stats["currentSet"] = m.CurrentSet
		stats["setsPlayed"] = len(m.Sets)
		stats["matchFinished"] = m.Finished()
		stats["idempotencyKeys"] = s.deduper.Size()
		if a, ok := s.store.(*repository.AsyncStore); ok {
			stats["pendingWrites"] = a.Pending()
		}
	}

	return stats
}

// duplicate records key and reports whether it was seen before. Must be
// called with s.mu held.
func (s *Service) duplicate(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	if !s.deduper.SeenAndRecord(ctx, key) {
		return false
	}
	metrics.RecordDuplicateCommand()
	s.logger.Debug(ctx, "duplicate command acknowledged", logger.String("key", key))
	return true
}

// view builds the operator view. Must be called with s.mu held.
func (s *Service) view() View {
	m := s.engine.Snapshot()
	v := View{
		Match:            m,
		Step:             s.engine.Step(),
		Winner:           m.Winner(),
		SetScores:        []SetScore{},
		MaxSubstitutions: s.engine.MaxSubstitutions(),
	}
	for _, set := range m.Sets {
		if set.Finished {
			v.SetScores = append(v.SetScores, SetScore{Number: set.Number, Score: set.Score, Winner: set.Winner})
		}
	}
	return v
}
