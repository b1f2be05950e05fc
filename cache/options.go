package cache

import (
	"io"
	"log/slog"
	"time"

	"github.com/Keksclan/gencache"
	"github.com/Keksclan/gencache/ratelimit"
	"github.com/Keksclan/gencache/retry"
)

// l1Config holds the settings shared by the in-process backends.
type l1Config struct {
	ttl     time.Duration
	obs     Observer
	limiter *ratelimit.Limiter
}

// L1Option configures an in-process cache ([L1] or [Ristretto]).
type L1Option func(*l1Config)

// WithDefaultTTL sets the expiration applied when Set is called with a zero
// TTL.
func WithDefaultTTL(d time.Duration) L1Option {
	return func(c *l1Config) {
		c.ttl = d
	}
}

// WithObserver reports hits, misses, evictions and loads to obs.
func WithObserver(obs Observer) L1Option {
	return func(c *l1Config) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// WithLoaderLimit gates GetOrSet loader invocations behind lim. Callers wait
// for a token, or fail with the context error.
func WithLoaderLimit(lim *ratelimit.Limiter) L1Option {
	return func(c *l1Config) {
		c.limiter = lim
	}
}

func newL1Config(opts []L1Option) l1Config {
	cfg := l1Config{
		ttl: gencache.NoExpiration,
		obs: nopObserver{},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// l2Config holds the settings of an [L2].
type l2Config struct {
	retry   retry.Config
	circuit circuitConfig
	logger  *slog.Logger
}

// L2Option configures an [L2].
type L2Option func(*l2Config)

// WithRetry replaces the retry policy applied to each Redis command.
func WithRetry(cfg retry.Config) L2Option {
	return func(c *l2Config) {
		c.retry = cfg
	}
}

// WithCircuit sets how many consecutive failures open the circuit and how
// long it stays open before a probe is let through.
func WithCircuit(failures int, openFor time.Duration) L2Option {
	return func(c *l2Config) {
		c.circuit.failureThreshold = failures
		c.circuit.openTimeout = openFor
	}
}

// WithLogger logs swallowed Redis errors to logger.
func WithLogger(logger *slog.Logger) L2Option {
	return func(c *l2Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newL2Config(opts []L2Option) l2Config {
	cfg := l2Config{
		retry: retry.Config{
			MaxAttempts: 2,
			BaseDelay:   10 * time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
			Jitter:      0.2,
			Retryable:   Transient,
		},
		circuit: circuitConfig{
			failureThreshold:   5,
			openTimeout:        5 * time.Second,
			halfOpenMaxSuccess: 1,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
