package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock gives tests full control over cache time.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(max int, ttl time.Duration) (*MetricCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New[int](Options{MaxEntries: max, TTL: ttl, Now: clock.now})
	return c, clock
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)

	c.Set("a.go", 5)
	got, ok := c.Get("a.go")
	if !ok {
		t.Fatal("expected hit for a.go")
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}

	if _, ok := c.Get("missing.go"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestSetOverwritesAndRefreshesAge(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	c.Set("a.go", 1)
	clock.advance(50 * time.Minute)
	c.Set("a.go", 2)
	clock.advance(30 * time.Minute)

	// 80 minutes after the first write but only 30 after the second.
	got, ok := c.Get("a.go")
	if !ok {
		t.Fatal("entry should still be live after overwrite")
	}
	if got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestGetExpiredDeletesEntry(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	c.Set("a.go", 1)
	clock.advance(2 * time.Hour)

	if _, ok := c.Get("a.go"); ok {
		t.Fatal("expected expired entry to miss")
	}
	// The expired entry must be physically gone, not just hidden.
	c.mu.Lock()
	_, stillThere := c.entries["a.go"]
	c.mu.Unlock()
	if stillThere {
		t.Error("expired entry not deleted on Get")
	}
}

func TestEvictOldestAtCapacity(t *testing.T) {
	c, clock := newTestCache(3, time.Hour)

	c.Set("a.go", 1)
	clock.advance(time.Minute)
	c.Set("b.go", 2)
	clock.advance(time.Minute)
	c.Set("c.go", 3)
	clock.advance(time.Minute)

	// Reading a.go does not protect it: eviction is by write age.
	if _, ok := c.Get("a.go"); !ok {
		t.Fatal("a.go should be live")
	}

	c.Set("d.go", 4)

	if _, ok := c.Get("a.go"); ok {
		t.Error("a.go should have been evicted as oldest write")
	}
	for _, k := range []string{"b.go", "c.go", "d.go"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should survive eviction", k)
		}
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c, clock := newTestCache(2, time.Hour)

	c.Set("a.go", 1)
	clock.advance(time.Minute)
	c.Set("b.go", 2)
	c.Set("a.go", 10) // existing key, no eviction

	if _, ok := c.Get("b.go"); !ok {
		t.Error("overwrite of existing key must not evict others")
	}
}

func TestExpiredPurgedBeforeEviction(t *testing.T) {
	c, clock := newTestCache(2, time.Hour)

	c.Set("old.go", 1)
	clock.advance(2 * time.Hour)
	c.Set("a.go", 2)
	c.Set("b.go", 3)

	// old.go was expired, so inserting b.go should not have evicted a.go.
	if _, ok := c.Get("a.go"); !ok {
		t.Error("live entry evicted while an expired one was reclaimable")
	}
	if _, ok := c.Get("b.go"); !ok {
		t.Error("b.go missing after insert")
	}
}

func TestLenAndForEachSkipExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	c.Set("old.go", 1)
	clock.advance(2 * time.Hour)
	c.Set("new.go", 2)

	if n := c.Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}

	seen := map[string]int{}
	c.ForEach(func(k string, v int) { seen[k] = v })
	if len(seen) != 1 || seen["new.go"] != 2 {
		t.Errorf("ForEach visited %v, want only new.go", seen)
	}
}

func TestStats(t *testing.T) {
	c, clock := newTestCache(2, time.Hour)

	c.Set("a.go", 1)
	c.Get("a.go")    // hit
	c.Get("nope.go") // miss
	clock.advance(time.Minute)
	c.Set("b.go", 2)
	c.Set("c.go", 3) // evicts a.go

	s := c.Stats()
	if s.Hits != 1 {
		t.Errorf("Hits = %d, want 1", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("Misses = %d, want 1", s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
	if s.Entries != 2 {
		t.Errorf("Entries = %d, want 2", s.Entries)
	}
}

func TestSetIfAbsent(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	if !c.SetIfAbsent("a.go", 1) {
		t.Fatal("first SetIfAbsent should store")
	}
	if c.SetIfAbsent("a.go", 2) {
		t.Error("SetIfAbsent over a live entry should decline")
	}
	if got, _ := c.Get("a.go"); got != 1 {
		t.Errorf("got %d, want the original 1", got)
	}

	clock.advance(2 * time.Hour)
	if !c.SetIfAbsent("a.go", 3) {
		t.Error("SetIfAbsent should replace an expired entry")
	}
	if got, _ := c.Get("a.go"); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestUpdate(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	if c.Update("a.go", func(v int) (int, bool) { return v + 1, true }) {
		t.Error("Update on a missing key should report false")
	}

	c.Set("a.go", 5)
	if !c.Update("a.go", func(v int) (int, bool) { return v + 1, true }) {
		t.Fatal("Update on a live entry should store")
	}
	if got, _ := c.Get("a.go"); got != 6 {
		t.Errorf("got %d, want 6", got)
	}

	if c.Update("a.go", func(v int) (int, bool) { return 0, false }) {
		t.Error("Update should report false when fn declines")
	}
	if got, _ := c.Get("a.go"); got != 6 {
		t.Errorf("declined Update changed the value to %d", got)
	}

	clock.advance(2 * time.Hour)
	if c.Update("a.go", func(v int) (int, bool) { return v, true }) {
		t.Error("Update on an expired entry should report false")
	}
}

func TestUpdateRefreshesAge(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	c.Set("a.go", 1)
	clock.advance(50 * time.Minute)
	c.Update("a.go", func(v int) (int, bool) { return v, true })

	clock.advance(50 * time.Minute)
	if _, ok := c.Get("a.go"); !ok {
		t.Error("Update should reset the entry's write time")
	}
}

func TestPurgeExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("f%d.go", i), i)
	}
	clock.advance(2 * time.Hour)
	// Below capacity, Set leaves expired entries alone; purging is
	// deferred to the at-capacity path.
	c.Set("fresh.go", 99)

	if purged := c.PurgeExpired(); purged != 5 {
		t.Errorf("purged %d entries, want 5", purged)
	}
	if n := c.Len(); n != 1 {
		t.Errorf("Len after purge = %d, want 1", n)
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)

	c.Set("a.go", 1)
	c.Get("a.go")
	c.Clear()

	if n := c.Len(); n != 0 {
		t.Errorf("Len after Clear = %d, want 0", n)
	}
	s := c.Stats()
	if s.Hits != 0 || s.Misses != 0 || s.Evictions != 0 {
		t.Errorf("stats not reset after Clear: %+v", s)
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := New[string](Options{})
	if c.maxEntries != DefaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", c.maxEntries, DefaultMaxEntries)
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](DefaultOptions())
	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("f%d.go", i%20)
				c.Set(key, g*1000+i)
				c.Get(key)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	if n := c.Len(); n != 20 {
		t.Errorf("Len = %d, want 20", n)
	}
}
