// Package ratelimit paces outbound API calls.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum delay between consecutive calls to one target
// API. One instance is shared by all calls to that API for the lifetime of
// a run; calls must be serialized through it.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer returns a pacer that allows one call per interval. The first
// call never blocks.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until at least the configured interval has elapsed since the
// previous Wait returned, or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Interval returns the configured minimum delay between calls.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
