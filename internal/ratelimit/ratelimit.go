// Package ratelimit implements a sliding-window limiter over a pluggable
// counter store shared by every server instance.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/pkg/config"
	"github.com/emojiblog/emojiblog/pkg/logging"
)

// Decision is the store's answer for one hit
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is when the oldest hit in the window expires
	Reset time.Time
}

// Store records hits in a rolling window. Implementations must evaluate and
// record atomically so concurrent callers never exceed limit.
type Store interface {
	Allow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (Decision, error)
}

// Result reports the outcome of Limit
type Result struct {
	Success   bool
	Remaining int
	Reset     time.Time
}

// Limiter permits at most limit operations per identifier in any rolling window
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// New creates a limiter. A nil now defaults to time.Now.
func New(store Store, cfg config.RateLimitConfig, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Limiter{
		store:  store,
		limit:  cfg.Limit,
		window: cfg.Window,
		prefix: prefix,
		now:    now,
		logger: logging.WithComponent("ratelimit"),
	}
}

func (l *Limiter) key(identifier string) string {
	return l.prefix + ":" + identifier
}

// Limit records one operation for identifier
func (l *Limiter) Limit(ctx context.Context, identifier string) (Result, error) {
	d, err := l.store.Allow(ctx, l.key(identifier), l.now(), l.window, l.limit)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit store: %w", err)
	}
	if !d.Allowed {
		l.logger.Info("Rate limit exceeded",
			zap.String("identifier", identifier),
			zap.Time("reset", d.Reset))
	}
	return Result{Success: d.Allowed, Remaining: d.Remaining, Reset: d.Reset}, nil
}
