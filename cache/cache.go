// Package cache provides the TTL caches fronting expensive remote
// enumerations. Each cache is an explicit instance owned by its service,
// not ambient process state.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock abstracts time for TTL tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Entry wraps a cached value with its insertion time and TTL.
type Entry[T any] struct {
	Value      T
	InsertedAt time.Time
	TTL        time.Duration
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e Entry[T]) Expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) > e.TTL
}

// Stats counts cache effectiveness for telemetry.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Cache is a keyed TTL cache. Concurrent refreshes of the same key are
// tolerated as duplicate work; the last completed Put wins the slot.
type Cache[T any] struct {
	namespace string
	ttl       time.Duration
	clock     Clock

	mu      sync.RWMutex
	entries map[string]Entry[T]

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock injects a clock, for tests.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a cache with the given namespace and default TTL.
func New[T any](namespace string, ttl time.Duration, opts ...Option) *Cache[T] {
	o := options{clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		namespace: namespace,
		ttl:       ttl,
		clock:     o.clock,
		entries:   make(map[string]Entry[T]),
	}
}

// Namespace returns the cache's namespace label.
func (c *Cache[T]) Namespace() string { return c.namespace }

// TTL returns the configured default TTL.
func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// Get returns the value for key if present and within TTL.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.Expired(c.clock.Now()) {
		c.misses.Add(1)
		var zero T
		return zero, false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// Put inserts value under key with the default TTL, replacing any prior
// entry. Last write wins.
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	c.entries[key] = Entry[T]{Value: value, InsertedAt: c.clock.Now(), TTL: c.ttl}
	c.mu.Unlock()
}

// Invalidate drops the entry for key, if any.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]Entry[T])
	c.mu.Unlock()
}

// Stats returns hit/miss counters and the current entry count, including
// entries that have expired but not yet been replaced.
func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: n,
	}
}
