// Package retry provides a generic retry helper with exponential backoff and
// jitter for calls to remote cache backends.
package retry

import (
	"context"
	"time"
)

// Config controls the retry behaviour of [Do].
type Config struct {
	// MaxAttempts is the maximum number of times fn is called (including the
	// first attempt). Values ≤ 1 mean no retries.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent retries use
	// exponential back-off: BaseDelay * 2^attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed back-off delay.
	MaxDelay time.Duration

	// Jitter adds randomness to the delay. A value of 0.2 means ±20 % of
	// the computed delay. Zero disables jitter.
	Jitter float64

	// Retryable decides whether an error is worth another attempt. A nil
	// Retryable retries nothing.
	Retryable func(error) bool
}

// Do calls fn up to cfg.MaxAttempts times, retrying only errors accepted by
// cfg.Retryable. Between attempts an exponential back-off delay (with
// optional jitter) is applied.
//
// The context is checked before every retry; if ctx is done the function
// returns immediately with the context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	for i := range attempts {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if i == attempts-1 || cfg.Retryable == nil || !cfg.Retryable(err) {
			return result, err
		}

		timer := time.NewTimer(backoff(cfg, i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, nil
}
