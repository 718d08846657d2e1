package cache

import (
	"sync"
	"time"
)

// Cache configuration constants
const (
	DefaultMaxEntries = 500
	DefaultTTL        = 24 * time.Hour
)

// entry pairs a cached value with the time it was written. Entries older
// than the TTL are logically absent even while still physically stored.
type entry[T any] struct {
	value     T
	writtenAt time.Time
}

// Options configures a MetricCache.
type Options struct {
	MaxEntries int
	TTL        time.Duration
	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard cache configuration.
func DefaultOptions() Options {
	return Options{
		MaxEntries: DefaultMaxEntries,
		TTL:        DefaultTTL,
	}
}

// MetricCache is a bounded, time-limited key-value store holding the latest
// computed value per key. Eviction is age-since-write: when an insertion
// would exceed capacity, the entry with the smallest write timestamp among
// the live entries is removed. Expired entries are purged lazily on touch.
//
// No operation returns an error; absence is the only failure signal.
type MetricCache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]

	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	// Counters for diagnostics
	hits      int64
	misses    int64
	evictions int64
}

// Stats holds cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// New creates a metric cache with the given options.
func New[T any](opts Options) *MetricCache[T] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MetricCache[T]{
		entries:    make(map[string]entry[T]),
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		now:        opts.Now,
	}
}

// Set stores a value under key. If the key is new and the cache is at
// capacity, expired entries are purged first and, if the cache is still
// full, the oldest-written entry is evicted.
func (c *MetricCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// SetIfAbsent stores value only when no live entry exists for key, making
// the existence check and the write one atomic step. It reports whether
// the value was stored.
func (c *MetricCache[T]) SetIfAbsent(key string, value T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if c.now().Sub(e.writtenAt) <= c.ttl {
			return false
		}
		delete(c.entries, key)
	}
	c.setLocked(key, value)
	return true
}

// Update applies fn to the live value for key under the cache lock and
// stores the result when fn reports true, refreshing the entry's age.
// It returns whether a replacement was stored. fn must not call back
// into the cache.
func (c *MetricCache[T]) Update(key string, fn func(value T) (T, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	now := c.now()
	if now.Sub(e.writtenAt) > c.ttl {
		delete(c.entries, key)
		return false
	}
	next, store := fn(e.value)
	if !store {
		return false
	}
	c.entries[key] = entry[T]{value: next, writtenAt: now}
	return true
}

// Get returns the value for key if a live entry exists. An expired entry is
// deleted on the spot and reported as absent.
func (c *MetricCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().Sub(e.writtenAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Contains reports whether a live entry exists without counting a hit/miss.
func (c *MetricCache[T]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(e.writtenAt) > c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// Delete removes a key regardless of expiry state.
func (c *MetricCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len counts live entries only.
func (c *MetricCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if now.Sub(e.writtenAt) <= c.ttl {
			n++
		}
	}
	return n
}

// ForEach visits every live entry. Expired entries are invisible to the
// visitor. The visit callback must not call back into the cache.
func (c *MetricCache[T]) ForEach(visit func(key string, value T)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.writtenAt) <= c.ttl {
			visit(k, e.value)
		}
	}
}

// PurgeExpired removes expired entries eagerly and returns the purge count.
func (c *MetricCache[T]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeExpiredLocked(c.now())
}

// Clear removes all entries and resets statistics.
func (c *MetricCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// Stats returns cache statistics.
func (c *MetricCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := 0
	for _, e := range c.entries {
		if now.Sub(e.writtenAt) <= c.ttl {
			live++
		}
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   live,
	}
}

// setLocked writes key, making room when a new key lands at capacity.
// Caller holds c.mu.
func (c *MetricCache[T]) setLocked(key string, value T) {
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.purgeExpiredLocked(now)
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry[T]{value: value, writtenAt: now}
}

// purgeExpiredLocked deletes expired entries. Caller holds c.mu.
func (c *MetricCache[T]) purgeExpiredLocked(now time.Time) int {
	purged := 0
	for k, e := range c.entries {
		if now.Sub(e.writtenAt) > c.ttl {
			delete(c.entries, k)
			purged++
		}
	}
	c.evictions += int64(purged)
	return purged
}

// evictOldestLocked removes the entry with the smallest write timestamp.
// Caller holds c.mu.
func (c *MetricCache[T]) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for k, e := range c.entries {
		if first || e.writtenAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.writtenAt
			first = false
		}
	}

	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}
