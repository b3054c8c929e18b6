package match

import (
	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithResolver sets the coin toss resolver.
func WithResolver(r *cointoss.Resolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithMaxSubstitutions limits regular substitutions per team per set.
// Zero means unlimited.
func WithMaxSubstitutions(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxSubs = n
		}
	}
}

// WithIDGenerator replaces the match id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}
