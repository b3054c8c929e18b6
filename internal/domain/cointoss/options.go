// Package cointoss resolves the pre-set toss that decides the first server.
package cointoss

import (
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithDelay sets the pacing delay before a random toss lands. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithClock replaces the clock used for the pacing delay.
func WithClock(c clockwork.Clock) Option {
	return func(r *Resolver) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithSeed makes random tosses reproducible.
func WithSeed(seed int64) Option {
	return func(r *Resolver) {
		r.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // a coin toss does not need crypto randomness
	}
}
