package cointoss

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/courtside/internal/domain/types"
)

const defaultDelay = 1500 * time.Millisecond

// Choice is what the toss winner picked.
type Choice string

const (
	ChoiceService   Choice = "service"
	ChoiceReception Choice = "reception"
	ChoiceCourt     Choice = "court"
)

// Valid reports whether c is a known choice.
func (c Choice) Valid() bool {
	return c == ChoiceService || c == ChoiceReception || c == ChoiceCourt
}

// Mode tells how the winner was designated.
type Mode string

const (
	ModeRandom Mode = "random"
	ModeManual Mode = "manual"
)

// Result is a completed toss.
type Result struct {
	Winner types.Side `json:"winner"`
	Choice Choice     `json:"choice"`
}

// ServingTeam derives the first server of the set. Only a "service" choice
// keeps the serve with the winner; "reception" and "court" both hand it to
// the other team.
func (r Result) ServingTeam() types.Side {
	if r.Choice == ChoiceService {
		return r.Winner
	}
	return r.Winner.Other()
}

// Decide validates a winner and choice pair and returns the toss result.
func Decide(winner types.Side, choice Choice) (Result, error) {
	if !winner.Valid() {
		return Result{}, ErrInvalidWinner
	}
	if !choice.Valid() {
		return Result{}, fmt.Errorf("choice %q: %w", choice, ErrInvalidChoice)
	}
	return Result{Winner: winner, Choice: choice}, nil
}

// Resolver picks toss winners. Random tosses land after a fixed pacing delay
// measured on the configured clock; manual tosses are immediate.
type Resolver struct {
	clock clockwork.Clock
	delay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver creates a resolver with a real clock and time-seeded randomness.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		clock: clockwork.NewRealClock(),
		delay: defaultDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(r.clock.Now().UnixNano())) //nolint:gosec // a coin toss does not need crypto randomness
	}
	return r
}

// Delay returns the configured pacing delay.
func (r *Resolver) Delay() time.Duration { return r.delay }

// Toss waits for the pacing delay, then picks A or B uniformly.
func (r *Resolver) Toss(ctx context.Context) (types.Side, error) {
	if r.delay > 0 {
		timer := r.clock.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return types.SideNone, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-timer.Chan():
		}
	}

	r.mu.Lock()
	n := r.rng.Intn(2)
	r.mu.Unlock()

	if n == 0 {
		return types.SideA, nil
	}
	return types.SideB, nil
}

// Manual designates winner without any delay.
func (r *Resolver) Manual(winner types.Side) (types.Side, error) {
	if !winner.Valid() {
		return types.SideNone, ErrInvalidWinner
	}
	return winner, nil
}
