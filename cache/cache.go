// Package cache adapts the generational engine to a context-aware, byte
// oriented caching contract that is safe for concurrent use, and layers it
// with Redis and alternative in-process backends.
package cache

import (
	"context"
	"time"
)

// Cache is the caching contract exposed to user logic.
type Cache interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A zero TTL means the
	// entry gets the backend's default expiration, which is none unless
	// configured otherwise.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetOrSet returns the cached value for key. On a cache miss it calls
	// loader exactly once, stores the result, and returns it.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error)
}

// Observer receives accounting events from an in-process cache. Methods are
// called synchronously, sometimes while the cache holds its lock, so they
// must be cheap and must not call back into the cache.
type Observer interface {
	Hit()
	Miss()
	Evicted()
	Loaded(err error)
}

type nopObserver struct{}

func (nopObserver) Hit()         {}
func (nopObserver) Miss()        {}
func (nopObserver) Evicted()     {}
func (nopObserver) Loaded(error) {}
