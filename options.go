package moot

import (
	"log/slog"
	"time"

	"github.com/mootlab/moot/internal/engine"
	"github.com/mootlab/moot/internal/logging"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

// RoundingPolicy selects how scores are reduced to integers.
type RoundingPolicy int

const (
	// RoundTruncate drops the fractional part (default).
	RoundTruncate RoundingPolicy = iota
	// RoundNearest rounds to the nearest integer (legacy behavior).
	RoundNearest
)

type config struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	rounding engine.RoundingPolicy
	locker   ports.DistributedLocker
	clock    func() time.Time
}

func newConfig() *config {
	return &config{
		logger:   logging.NewNop(),
		rounding: engine.RoundTruncate,
	}
}

// Option configures the Engine.
type Option func(*config)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) { c.hooks = hooks }
}

// WithRoundingPolicy selects the score rounding policy.
func WithRoundingPolicy(policy RoundingPolicy) Option {
	return func(c *config) {
		if policy == RoundNearest {
			c.rounding = engine.RoundNearest
		} else {
			c.rounding = engine.RoundTruncate
		}
	}
}

// WithLocker enables distributed session locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *config) { c.locker = locker }
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *config) { c.clock = clock }
}
