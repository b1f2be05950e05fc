package gencache

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// entry is what a generation stores per key. hasExpiry=false means the
// entry never expires.
type entry[V any] struct {
	value     V
	expiry    time.Time
	hasExpiry bool
}

func (e entry[V]) expired(now time.Time) bool {
	return e.hasExpiry && !e.expiry.After(now)
}

// generation is one insertion-ordered cohort of entries. Overwriting an
// existing key keeps its position; only put on a new key appends.
type generation[K comparable, V any] struct {
	m *orderedmap.OrderedMap[K, entry[V]]
}

func newGeneration[K comparable, V any]() *generation[K, V] {
	return &generation[K, V]{m: orderedmap.New[K, entry[V]]()}
}

func (g *generation[K, V]) get(key K) (entry[V], bool) {
	return g.m.Get(key)
}

func (g *generation[K, V]) has(key K) bool {
	return g.m.GetPair(key) != nil
}

// put inserts or overwrites key and reports whether it was already present.
func (g *generation[K, V]) put(key K, e entry[V]) bool {
	_, present := g.m.Set(key, e)
	return present
}

func (g *generation[K, V]) remove(key K) bool {
	_, present := g.m.Delete(key)
	return present
}

func (g *generation[K, V]) len() int {
	return g.m.Len()
}

func (g *generation[K, V]) oldest() *orderedmap.Pair[K, entry[V]] {
	return g.m.Oldest()
}

// record is a detached copy of one key and its entry.
type record[K comparable, V any] struct {
	key K
	e   entry[V]
}

// snapshot copies the generation oldest first, detached from later mutation.
func (g *generation[K, V]) snapshot() []record[K, V] {
	out := make([]record[K, V], 0, g.m.Len())
	for p := g.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, record[K, V]{key: p.Key, e: p.Value})
	}
	return out
}
