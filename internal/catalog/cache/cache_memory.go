package cache

import (
	"context"
	"sync"
	"time"

	id "gradus/pkg/domain"
)

type cachedEntry struct {
	entry      Entry
	storedAt   time.Time
	accessedAt time.Time
}

// InMemoryCache provides an in-memory registry answer cache with TTL
// expiration and optional LRU eviction. Suitable for single-instance
// deployments and tests.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]cachedEntry
	ttl     time.Duration
	maxSize int
}

// InMemoryOption configures the InMemoryCache.
type InMemoryOption func(*InMemoryCache)

// WithMaxSize bounds the cache to n entries; the least recently accessed
// entry is evicted when a new code arrives at capacity. Unbounded by
// default.
func WithMaxSize(n int) InMemoryOption {
	return func(c *InMemoryCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
func NewInMemoryCache(ttl time.Duration, opts ...InMemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]cachedEntry),
		ttl:     ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached registry answer by course code and refreshes its
// recency. Returns ErrNotFound if no entry exists or the entry has expired.
func (c *InMemoryCache) Get(_ context.Context, code id.CourseCode) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[code.String()]; ok {
		if time.Since(cached.storedAt) < c.ttl {
			cached.accessedAt = time.Now()
			c.entries[code.String()] = cached
			entry := cached.entry
			return &entry, nil
		}
	}
	return nil, ErrNotFound
}

// Set stores a registry answer, overwriting any existing entry. At
// capacity, the least recently accessed entry makes room.
func (c *InMemoryCache) Set(_ context.Context, code id.CourseCode, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := code.String()
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		if _, exists := c.entries[key]; !exists {
			c.evictOldest()
		}
	}

	now := time.Now()
	c.entries[key] = cachedEntry{entry: entry, storedAt: now, accessedAt: now}
	return nil
}

// Invalidate removes the entry for a course code, if present.
func (c *InMemoryCache) Invalidate(_ context.Context, code id.CourseCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code.String())
	return nil
}

// CleanupExpired removes all expired entries. Intended to be called
// periodically from a janitor goroutine.
func (c *InMemoryCache) CleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, cached := range c.entries {
		if time.Since(cached.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries currently held, expired or not.
func (c *InMemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the least recently accessed entry. Caller holds the
// lock.
func (c *InMemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, cached := range c.entries {
		if oldestKey == "" || cached.accessedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = cached.accessedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
