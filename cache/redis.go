package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/Keksclan/gencache/retry"
	"github.com/redis/go-redis/v9"
)

// errCircuitOpen short-circuits L2 calls while Redis is considered down.
var errCircuitOpen = errors.New("cache: redis circuit open")

// L2 is a Redis-backed cache layer. All operations fail soft: if Redis is
// unavailable, methods return a miss (or silently discard the write) instead
// of surfacing the error to the caller. Transient errors are retried, and
// repeated failures open a circuit that skips Redis for a while.
type L2 struct {
	rdb *redis.Client

	retry   retry.Config
	circuit *circuit
	log     *slog.Logger
	loads   loadGroup
}

// NewL2 creates a new Redis-backed L2 cache.
func NewL2(addr, password string, db int, opts ...L2Option) *L2 {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newL2(rdb, opts...)
}

func newL2(rdb *redis.Client, opts ...L2Option) *L2 {
	cfg := newL2Config(opts)
	return &L2{
		rdb:     rdb,
		retry:   cfg.retry,
		circuit: newCircuit(cfg.circuit),
		log:     cfg.logger,
	}
}

// Get retrieves a value by key. Returns (nil, false, nil) on a miss or when
// Redis is unreachable.
func (l *L2) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := guarded(ctx, l, "get", func(ctx context.Context) ([]byte, error) {
		return l.rdb.Get(ctx, key).Bytes()
	})
	if err != nil {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value under key with the given TTL. A zero TTL means the entry
// has no automatic expiration. Errors are logged and discarded.
func (l *L2) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	ttl = max(ttl, 0)
	_, _ = guarded(ctx, l, "set", func(ctx context.Context) (string, error) {
		return l.rdb.Set(ctx, key, val, ttl).Result()
	})
	return nil
}

// Delete removes key. Errors are logged and discarded.
func (l *L2) Delete(ctx context.Context, key string) error {
	_, _ = guarded(ctx, l, "del", func(ctx context.Context) (int64, error) {
		return l.rdb.Del(ctx, key).Result()
	})
	return nil
}

// GetOrSet returns the value stored in Redis, or loads, stores and returns
// it. Loader errors are returned; Redis errors are not.
func (l *L2) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}
	return l.loads.do(ctx, key, func(ctx context.Context) ([]byte, error) {
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.Set(ctx, key, val, ttl)
		return val, nil
	})
}

// Ping checks the Redis connection, bypassing the circuit.
func (l *L2) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2) Close() error {
	return l.rdb.Close()
}

// guarded runs a Redis command through the circuit and the retry policy.
// redis.Nil counts as success.
func guarded[T any](ctx context.Context, l *L2, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !l.circuit.allow() {
		return zero, errCircuitOpen
	}

	v, err := retry.Do(ctx, l.retry, fn)
	switch {
	case err == nil || errors.Is(err, redis.Nil):
		l.circuit.success()
	case errors.Is(err, context.Canceled):
		// The caller gave up; says nothing about Redis.
		l.circuit.release()
	default:
		l.circuit.failure()
		l.log.Warn("redis command failed", "op", op, "err", err, "circuit", l.circuit.current().String())
	}
	return v, err
}

// Transient reports whether a Redis error is worth retrying. It is the
// default retry predicate of [L2].
func Transient(err error) bool {
	if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) || errors.Is(err, io.EOF)
}
