package gencache

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

type pair struct {
	key   string
	value int
}

func collect(seq func(func(string, int) bool)) []pair {
	var out []pair
	for k, v := range seq {
		out = append(out, pair{k, v})
	}
	return out
}

// newTwoGenerations returns a cache with previous = {a, b, c} and active = {d, e}.
func newTwoGenerations(t *testing.T, opts ...Option) *Cache[string, int] {
	t.Helper()
	c := mustNew[string, int](t, 3, opts...)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4)
	c.Set("e", 5)
	return c
}

func TestAscending_PreviousThenActive(t *testing.T) {
	c := newTwoGenerations(t)

	got := collect(c.Ascending())
	want := []pair{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if all := collect(c.All()); !slices.Equal(all, want) {
		t.Fatalf("All: got %v, want %v", all, want)
	}
}

func TestDescending_ActiveThenPrevious(t *testing.T) {
	c := newTwoGenerations(t)

	got := collect(c.Descending())
	want := []pair{{"e", 5}, {"d", 4}, {"c", 3}, {"b", 2}, {"a", 1}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIteration_SkipsShadowedCopies(t *testing.T) {
	c := mustNew[string, int](t, 4)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4) // rotation: previous = {a, b, c, d}
	c.Set("e", 5)
	c.Set("b", 20)

	asc := collect(c.Ascending())
	wantAsc := []pair{{"a", 1}, {"c", 3}, {"d", 4}, {"e", 5}, {"b", 20}}
	if !slices.Equal(asc, wantAsc) {
		t.Fatalf("ascending: got %v, want %v", asc, wantAsc)
	}

	desc := collect(c.Descending())
	wantDesc := []pair{{"b", 20}, {"e", 5}, {"d", 4}, {"c", 3}, {"a", 1}}
	if !slices.Equal(desc, wantDesc) {
		t.Fatalf("descending: got %v, want %v", desc, wantDesc)
	}
}

func TestIteration_DoesNotPromote(t *testing.T) {
	c := newTwoGenerations(t)

	for range c.Ascending() {
	}
	for range c.Descending() {
	}

	if c.previous.len() != 3 || c.active.len() != 2 {
		t.Fatalf("generations changed: previous=%d active=%d", c.previous.len(), c.active.len())
	}
}

func TestIteration_EvictsExpiredAsSideEffect(t *testing.T) {
	for _, dir := range []string{"ascending", "descending"} {
		t.Run(dir, func(t *testing.T) {
			clock := newFakeClock()
			rec := &recorder[string, int]{}
			c := mustNew[string, int](t, 10, WithClock(clock.Now), rec.option())

			c.Set("a", 1)
			c.SetWithTTL("b", 2, time.Second)
			c.Set("c", 3)
			c.SetWithTTL("d", 4, time.Second)
			clock.Advance(time.Minute)

			seq := c.Ascending()
			want := []pair{{"a", 1}, {"c", 3}}
			if dir == "descending" {
				seq = c.Descending()
				want = []pair{{"c", 3}, {"a", 1}}
			}

			if got := collect(seq); !slices.Equal(got, want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			if len(rec.got) != 2 {
				t.Fatalf("callback fired %d times, want 2", len(rec.got))
			}
			if n := c.Len(); n != 2 {
				t.Fatalf("Len = %d, want 2", n)
			}

			// A second pass finds nothing left to evict.
			collect(seq)
			if len(rec.got) != 2 {
				t.Fatalf("callback fired %d times, want 2", len(rec.got))
			}
		})
	}
}

func TestIteration_StopsEarly(t *testing.T) {
	c := newTwoGenerations(t)

	var asc []string
	for k := range c.Ascending() {
		asc = append(asc, k)
		if k == "b" {
			break
		}
	}
	if !slices.Equal(asc, []string{"a", "b"}) {
		t.Fatalf("ascending: got %v", asc)
	}

	var desc []string
	for k := range c.Descending() {
		desc = append(desc, k)
		if len(desc) == 3 {
			break
		}
	}
	if !slices.Equal(desc, []string{"e", "d", "c"}) {
		t.Fatalf("descending: got %v", desc)
	}
}

func TestAscending_DeleteCurrentDuringTraversal(t *testing.T) {
	c := newTwoGenerations(t)

	var seen []string
	for k := range c.Ascending() {
		seen = append(seen, k)
		c.Delete(k)
	}
	if !slices.Equal(seen, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("seen %v", seen)
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}
}

func TestAscending_DeleteCurrentAndNextDuringTraversal(t *testing.T) {
	c := mustNew[string, int](t, 10)
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, i+1)
	}

	var seen []string
	for k := range c.Ascending() {
		seen = append(seen, k)
		if k == "a" {
			c.Delete("a")
			c.Delete("b")
		}
	}
	if !slices.Equal(seen, []string{"a", "c", "d"}) {
		t.Fatalf("seen %v, want [a c d]", seen)
	}
}

func TestAscending_DeleteLaterEntryAcrossGenerations(t *testing.T) {
	c := newTwoGenerations(t)

	var seen []string
	for k := range c.Ascending() {
		seen = append(seen, k)
		if k == "b" {
			c.Delete("c")
			c.Delete("d")
		}
	}
	if !slices.Equal(seen, []string{"a", "b", "e"}) {
		t.Fatalf("seen %v, want [a b e]", seen)
	}
}

func TestDescending_SnapshotIgnoresMutation(t *testing.T) {
	c := newTwoGenerations(t)

	var seen []string
	for k := range c.Descending() {
		seen = append(seen, k)
		if k == "e" {
			c.Delete("d")
		}
	}
	if !slices.Equal(seen, []string{"e", "d", "c", "b", "a"}) {
		t.Fatalf("seen %v", seen)
	}
	if c.Has("d") {
		t.Fatal("expected d to be deleted")
	}
}

func TestKeysValuesForEach(t *testing.T) {
	c := newTwoGenerations(t)

	var keys []string
	for k := range c.Keys() {
		keys = append(keys, k)
	}
	if !slices.Equal(keys, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("keys = %v", keys)
	}

	var values []int
	for v := range c.Values() {
		values = append(values, v)
	}
	if !slices.Equal(values, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("values = %v", values)
	}

	var calls []string
	c.ForEach(func(v int, k string) {
		calls = append(calls, fmt.Sprintf("%s=%d", k, v))
	})
	if !slices.Equal(calls, []string{"a=1", "b=2", "c=3", "d=4", "e=5"}) {
		t.Fatalf("ForEach calls = %v", calls)
	}
}

func TestKeys_StopsEarly(t *testing.T) {
	c := newTwoGenerations(t)

	n := 0
	for range c.Keys() {
		n++
		if n == 2 {
			break
		}
	}
	for range c.Values() {
		break
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
}
