package cache

import (
	"bytes"
	"context"
	"sync"

	"github.com/Keksclan/gencache/ratelimit"
)

// call is one in-flight load shared by every caller asking for its key.
type call struct {
	wg  sync.WaitGroup
	val []byte
	err error
}

// loadGroup deduplicates concurrent loads for the same key.
type loadGroup struct {
	mu    sync.Mutex
	calls map[string]*call
}

// do runs fn once per key at a time; concurrent callers for the same key
// wait for the first one and share its result.
func (g *loadGroup) do(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		if c.err != nil {
			return nil, c.err
		}
		return bytes.Clone(c.val), nil
	}

	c := &call{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn(ctx)
	c.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	return bytes.Clone(c.val), nil
}

// runLoader invokes loader once the limiter (if any) grants a token and
// reports the outcome to obs.
func runLoader(ctx context.Context, lim *ratelimit.Limiter, obs Observer, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			obs.Loaded(err)
			return nil, err
		}
	}
	val, err := loader(ctx)
	obs.Loaded(err)
	return val, err
}
