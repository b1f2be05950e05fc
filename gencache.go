// Package gencache provides a bounded in-memory cache that approximates
// least-recently-used eviction with two generations of entries.
//
// New entries go into the active generation. Once capacity distinct keys
// have been inserted there, the cache rotates: whatever is left in the
// previous generation is evicted, the active generation becomes the
// previous one and a fresh active generation starts. Reading a key that
// lives in the previous generation promotes it back into the active one.
// Every operation is O(1) amortized; the price is that recency is only
// tracked at generation granularity.
//
// Entries may carry a time-to-live. Expiry is checked lazily whenever an
// entry is touched, never by a timer. An optional eviction callback is
// called synchronously for every entry the cache discards on its own
// (rotation, resize, expiry); explicit Delete and Clear do not call it.
//
// A Cache is not safe for concurrent use. Guard it with a single mutex when
// it is shared; see the cache subpackage for a ready-made wrapper.
//
//	c, err := gencache.New[string, int](1000,
//		gencache.WithTTL(time.Minute),
//		gencache.WithOnEviction(func(k string, v int) { release(v) }),
//	)
//	c.Set("a", 1)
//	v, ok := c.Get("a")
package gencache

import (
	"fmt"
	"time"
)

// Cache is the generational cache engine.
type Cache[K comparable, V any] struct {
	active   *generation[K, V]
	previous *generation[K, V]

	// activeInserts counts distinct keys inserted into active since the last
	// rotation. Overwrites of keys already in active do not count.
	activeInserts int
	capacity      int

	ttl        time.Duration
	onEviction func(K, V)
	now        func() time.Time
}

// New creates a Cache holding at most capacity entries.
//
// It returns an error wrapping [ErrInvalidArgument] when capacity is not
// positive, when [WithTTL] was given a non-positive duration, or when the
// callback passed to [WithOnEviction] does not match K and V.
func New[K comparable, V any](capacity int, opts ...Option) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}

	cfg := config{
		ttl: NoExpiration,
		now: time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	onEviction, err := evictionFunc[K, V](cfg.onEviction)
	if err != nil {
		return nil, err
	}

	return &Cache[K, V]{
		active:     newGeneration[K, V](),
		previous:   newGeneration[K, V](),
		capacity:   capacity,
		ttl:        cfg.ttl,
		onEviction: onEviction,
		now:        cfg.now,
	}, nil
}

// Get returns the value stored under key. A hit in the previous generation
// promotes the entry into the active one, which may trigger a rotation.
// An expired entry is removed, reported to the eviction callback and
// treated as missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if e, ok := c.active.get(key); ok {
		return c.live(key, e)
	}
	if e, ok := c.previous.get(key); ok {
		if e.expired(c.now()) {
			c.expire(key, e)
			var zero V
			return zero, false
		}
		c.previous.remove(key)
		c.insert(key, e)
		return e.value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key, expiring ttl from now. Pass
// [NoExpiration] to keep the entry until it is evicted. A non-positive ttl
// stores an entry that is already expired.
//
// Overwriting a key of the active generation keeps its position and does
// not count towards rotation. A copy of key still held by the previous
// generation is shadowed and dropped silently at the next rotation.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	e := entry[V]{value: value}
	if ttl != NoExpiration {
		e.expiry = c.now().Add(ttl)
		e.hasExpiry = true
	}

	if c.active.has(key) {
		c.active.put(key, e)
		return
	}
	c.insert(key, e)
}

// Has reports whether key is present and not expired. It never promotes.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Peek is like Get but never promotes the entry.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	if e, ok := c.active.get(key); ok {
		return c.live(key, e)
	}
	if e, ok := c.previous.get(key); ok {
		return c.live(key, e)
	}
	var zero V
	return zero, false
}

// Delete removes key from both generations and reports whether it was
// present. The eviction callback is not called.
func (c *Cache[K, V]) Delete(key K) bool {
	inActive := c.active.remove(key)
	if inActive {
		c.activeInserts--
	}
	inPrevious := c.previous.remove(key)
	return inActive || inPrevious
}

// Clear removes every entry without calling the eviction callback.
func (c *Cache[K, V]) Clear() {
	c.active = newGeneration[K, V]()
	c.previous = newGeneration[K, V]()
	c.activeInserts = 0
}

// Resize changes the capacity. When capacity exceeds the number of live
// entries they all move to the active generation. Otherwise the oldest
// surplus is evicted (oldest first, through the eviction callback) and the
// rest becomes the previous generation, so the next insert does not push
// Len past capacity. Expired entries met on the way are evicted too.
//
// Surplus entries are reported before the cache is restructured: a callback
// still sees the old capacity and the evicted entry in place. Callbacks must
// not modify the cache.
func (c *Cache[K, V]) Resize(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}

	var live []record[K, V]
	c.ascend(func(key K, e entry[V]) bool {
		live = append(live, record[K, V]{key: key, e: e})
		return true
	})

	if capacity > len(live) {
		c.capacity = capacity
		c.active = fill(live)
		c.previous = newGeneration[K, V]()
		c.activeInserts = len(live)
		return nil
	}

	surplus := len(live) - capacity
	for _, r := range live[:surplus] {
		c.notify(r.key, r.e.value)
	}
	c.capacity = capacity
	c.previous = fill(live[surplus:])
	c.active = newGeneration[K, V]()
	c.activeInserts = 0
	return nil
}

// Len returns the number of entries, never more than Capacity. Expired
// entries that have not been touched yet are still counted. It is
// O(n) in the size of the previous generation.
func (c *Cache[K, V]) Len() int {
	if c.activeInserts == 0 {
		return c.previous.len()
	}
	n := c.activeInserts
	for p := c.previous.oldest(); p != nil; p = p.Next() {
		if !c.active.has(p.Key) {
			n++
		}
	}
	return min(n, c.capacity)
}

// Capacity returns the configured capacity.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// ExpiresIn returns how long the entry stored under key has left to live,
// or [NoExpiration] when it never expires. The result is negative for an
// entry that has expired but was not touched yet; ExpiresIn itself neither
// evicts nor promotes.
func (c *Cache[K, V]) ExpiresIn(key K) (time.Duration, bool) {
	e, ok := c.active.get(key)
	if !ok {
		e, ok = c.previous.get(key)
	}
	if !ok {
		return 0, false
	}
	if !e.hasExpiry {
		return NoExpiration, true
	}
	return e.expiry.Sub(c.now()), true
}

// String implements fmt.Stringer.
func (c *Cache[K, V]) String() string {
	return fmt.Sprintf("gencache.Cache(%d/%d)", c.Len(), c.capacity)
}

// insert adds a key that is not in active and rotates once active holds
// capacity distinct inserts.
func (c *Cache[K, V]) insert(key K, e entry[V]) {
	c.active.put(key, e)
	c.activeInserts++
	if c.activeInserts >= c.capacity {
		c.rotate()
	}
}

// rotate retires the previous generation. Keys shadowed by the retiring
// active generation are dropped without notification.
func (c *Cache[K, V]) rotate() {
	retired, filled := c.previous, c.active
	c.previous = filled
	c.active = newGeneration[K, V]()
	c.activeInserts = 0

	if c.onEviction == nil {
		return
	}
	for p := retired.oldest(); p != nil; p = p.Next() {
		if filled.has(p.Key) {
			continue
		}
		c.onEviction(p.Key, p.Value.value)
	}
}

// live returns the value of e unless it has expired, in which case key is
// evicted.
func (c *Cache[K, V]) live(key K, e entry[V]) (V, bool) {
	if e.expired(c.now()) {
		c.expire(key, e)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[K, V]) expire(key K, e entry[V]) {
	c.Delete(key)
	c.notify(key, e.value)
}

func (c *Cache[K, V]) notify(key K, value V) {
	if c.onEviction != nil {
		c.onEviction(key, value)
	}
}

func fill[K comparable, V any](records []record[K, V]) *generation[K, V] {
	g := newGeneration[K, V]()
	for _, r := range records {
		g.put(r.key, r.e)
	}
	return g
}
