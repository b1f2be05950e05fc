package gencache

import (
	"fmt"
	"time"
)

// config holds the settings assembled via functional options.
type config struct {
	ttl        time.Duration
	onEviction any
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*config)

// WithTTL sets the default time-to-live used by [Cache.Set]. The duration
// must be positive; pass [NoExpiration] (the default) to keep entries until
// they are evicted.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		c.ttl = d
	}
}

// WithOnEviction registers fn to be called synchronously whenever an entry
// is discarded automatically: on rotation, on resize, or when it is found
// expired. Explicit Delete and Clear never call it.
//
// K and V must match the type parameters of the Cache passed to New.
func WithOnEviction[K comparable, V any](fn func(key K, value V)) Option {
	return func(c *config) {
		c.onEviction = fn
	}
}

// WithClock replaces the time source used to compute and check expiry.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

func (c *config) validate() error {
	if c.ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidArgument, c.ttl)
	}
	if c.now == nil {
		return fmt.Errorf("%w: clock must not be nil", ErrInvalidArgument)
	}
	return nil
}

// evictionFunc recovers the typed callback stored by WithOnEviction.
func evictionFunc[K comparable, V any](fn any) (func(K, V), error) {
	switch f := fn.(type) {
	case nil:
		return nil, nil
	case func(K, V):
		return f, nil
	default:
		return nil, fmt.Errorf("%w: eviction callback has type %T", ErrInvalidArgument, fn)
	}
}
