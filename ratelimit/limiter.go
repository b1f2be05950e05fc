// Package ratelimit provides a token-bucket rate limiter backed by
// golang.org/x/time/rate, used to throttle cache loaders so a burst of
// misses cannot stampede the backing store.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter shared by every loader it gates.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps loads per second with the
// given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a load may start right now, consuming a token if so.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Wait blocks until a load may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
