package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/Keksclan/gencache"
	"github.com/Keksclan/gencache/ratelimit"
	"github.com/dgraph-io/ristretto/v2"
)

// Ristretto is an in-process cache backed by ristretto. Unlike [L1] it
// admits entries through a TinyLFU filter, so a Set may be dropped; use it
// when hit ratio under skewed load matters more than write visibility.
type Ristretto struct {
	rc *ristretto.Cache[string, []byte]

	ttl     time.Duration
	obs     Observer
	limiter *ratelimit.Limiter
	loads   loadGroup
}

// NewRistretto creates a ristretto-backed cache. maxCost bounds the number
// of entries (each entry has a cost of 1).
func NewRistretto(maxCost int64, opts ...L1Option) (*Ristretto, error) {
	cfg := newL1Config(opts)
	obs := cfg.obs

	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		OnEvict: func(*ristretto.Item[[]byte]) {
			obs.Evicted()
		},
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{
		rc:      rc,
		ttl:     cfg.ttl,
		obs:     obs,
		limiter: cfg.limiter,
	}, nil
}

// Get retrieves a value by key.
func (r *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := r.rc.Get(key)
	if !ok {
		r.obs.Miss()
		return nil, false, nil
	}
	r.obs.Hit()
	return bytes.Clone(v), true, nil
}

// Set stores a value under key and waits until it is visible to Get, unless
// the admission policy rejects it.
func (r *Ristretto) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 && r.ttl != gencache.NoExpiration {
		ttl = r.ttl
	}
	if ttl < 0 {
		ttl = 0
	}
	r.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	r.rc.Wait()
	return nil
}

// Delete removes key.
func (r *Ristretto) Delete(_ context.Context, key string) error {
	r.rc.Del(key)
	return nil
}

// GetOrSet returns the cached value for key, loading it once on a miss.
func (r *Ristretto) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := r.Get(ctx, key); ok {
		return v, nil
	}
	return r.loads.do(ctx, key, func(ctx context.Context) ([]byte, error) {
		val, err := runLoader(ctx, r.limiter, r.obs, loader)
		if err != nil {
			return nil, err
		}
		_ = r.Set(ctx, key, val, ttl)
		return val, nil
	})
}

// Close stops ristretto's background goroutines.
func (r *Ristretto) Close() {
	r.rc.Close()
}
