package cache

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/Keksclan/gencache"
	"github.com/Keksclan/gencache/ratelimit"
)

// L1 is an in-process cache backed by the generational engine. A single
// mutex serializes every engine call, including the eviction callbacks they
// trigger.
type L1 struct {
	mu     sync.Mutex
	engine *gencache.Cache[string, []byte]

	obs     Observer
	limiter *ratelimit.Limiter
	loads   loadGroup
}

// NewL1 creates an L1 cache holding at most capacity entries. It fails with
// [gencache.ErrInvalidArgument] when capacity or the default TTL is not
// positive.
func NewL1(capacity int, opts ...L1Option) (*L1, error) {
	cfg := newL1Config(opts)
	obs := cfg.obs

	engine, err := gencache.New[string, []byte](capacity,
		gencache.WithTTL(cfg.ttl),
		gencache.WithOnEviction(func(string, []byte) { obs.Evicted() }),
	)
	if err != nil {
		return nil, err
	}
	return &L1{
		engine:  engine,
		obs:     obs,
		limiter: cfg.limiter,
	}, nil
}

// Get retrieves a value by key, promoting it if it sits in the older
// generation.
func (l *L1) Get(_ context.Context, key string) ([]byte, bool, error) {
	l.mu.Lock()
	v, ok := l.engine.Get(key)
	l.mu.Unlock()

	if !ok {
		l.obs.Miss()
		return nil, false, nil
	}
	l.obs.Hit()
	return bytes.Clone(v), true, nil
}

// Set stores a value under key. A zero (or negative) TTL applies the
// default TTL.
func (l *L1) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	val = bytes.Clone(val)

	l.mu.Lock()
	defer l.mu.Unlock()
	if ttl > 0 {
		l.engine.SetWithTTL(key, val, ttl)
	} else {
		l.engine.Set(key, val)
	}
	return nil
}

// Delete removes key without counting it as an eviction.
func (l *L1) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	l.engine.Delete(key)
	l.mu.Unlock()
	return nil
}

// GetOrSet returns the cached value for key. On a miss it calls loader once
// (deduplicating concurrent callers for the same key), stores the result,
// and returns it.
func (l *L1) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}
	return l.loads.do(ctx, key, func(ctx context.Context) ([]byte, error) {
		val, err := runLoader(ctx, l.limiter, l.obs, loader)
		if err != nil {
			return nil, err
		}
		_ = l.Set(ctx, key, val, ttl)
		return val, nil
	})
}

// Len returns the number of stored entries.
func (l *L1) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Len()
}

// Resize changes the capacity, evicting the oldest entries if needed.
func (l *L1) Resize(capacity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Resize(capacity)
}

// Purge drops every entry without counting evictions.
func (l *L1) Purge() {
	l.mu.Lock()
	l.engine.Clear()
	l.mu.Unlock()
}
