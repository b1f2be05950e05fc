package gencache

import "iter"

// Iteration side effects: advancing any of the sequences below checks the
// next entry for expiry. An expired entry is deleted and passed to the
// eviction callback before the sequence moves on, so ranging over a Cache
// can evict entries and shrink it. Shadowed copies in the previous
// generation are skipped.

// All is an alias for Ascending.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	return c.Ascending()
}

// Ascending yields entries oldest first: the previous generation, then the
// active one, each in insertion order. The traversal is live: entries
// removed by the loop body are not visited, entries inserted or promoted by
// it may or may not be.
func (c *Cache[K, V]) Ascending() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		c.ascend(func(key K, e entry[V]) bool {
			return yield(key, e.value)
		})
	}
}

// Descending yields entries newest first. Each generation is copied before
// it is walked, so mutations made by the loop body do not disturb the walk.
func (c *Cache[K, V]) Descending() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		recent := c.active.snapshot()
		for i := len(recent) - 1; i >= 0; i-- {
			r := recent[i]
			if !c.visit(r.key, r.e, yieldValue(yield)) {
				return
			}
		}

		older := c.previous.snapshot()
		for i := len(older) - 1; i >= 0; i-- {
			r := older[i]
			if c.active.has(r.key) {
				continue
			}
			if !c.visit(r.key, r.e, yieldValue(yield)) {
				return
			}
		}
	}
}

// Keys yields keys in ascending order.
func (c *Cache[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range c.Ascending() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values yields values in ascending order.
func (c *Cache[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range c.Ascending() {
			if !yield(v) {
				return
			}
		}
	}
}

// ForEach calls fn for every entry in ascending order.
func (c *Cache[K, V]) ForEach(fn func(value V, key K)) {
	for k, v := range c.Ascending() {
		fn(v, k)
	}
}

// ascend walks previous (minus shadowed keys) then active, evicting expired
// entries as it goes. It stops when yield returns false. The keys of each
// generation are captured when its walk starts and re-checked before they
// are visited. A rotation caused by yield ends the walk of the retired
// generation.
func (c *Cache[K, V]) ascend(yield func(K, entry[V]) bool) {
	older := c.previous
	for _, r := range older.snapshot() {
		if c.previous != older {
			break
		}
		e, ok := older.get(r.key)
		if !ok || c.active.has(r.key) {
			continue
		}
		if !c.visit(r.key, e, yield) {
			return
		}
	}

	recent := c.active
	for _, r := range recent.snapshot() {
		e, ok := recent.get(r.key)
		if !ok {
			continue
		}
		if !c.visit(r.key, e, yield) {
			return
		}
	}
}

// visit evicts key if e has expired and otherwise hands it to yield.
func (c *Cache[K, V]) visit(key K, e entry[V], yield func(K, entry[V]) bool) bool {
	if e.expired(c.now()) {
		c.expire(key, e)
		return true
	}
	return yield(key, e)
}

func yieldValue[K comparable, V any](yield func(K, V) bool) func(K, entry[V]) bool {
	return func(key K, e entry[V]) bool {
		return yield(key, e.value)
	}
}
