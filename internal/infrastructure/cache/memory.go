package cache

import (
	"sync"
	"time"

	"pizzeria-backend/pkg/cache"

	gocache "github.com/patrickmn/go-cache"
)

type memoryEntry struct {
	value     interface{}
	createdAt time.Time
	expiresAt time.Time
}

type memoryCache struct {
	mu         sync.Mutex
	store      *gocache.Cache
	maxEntries int
	now        func() time.Time
}

type MemoryOption func(*memoryCache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryCache) { c.now = now }
}

// NewMemoryCache creates a new in-memory cache service.
// Expiry is fixed at insertion time and checked lazily on Get; there is no janitor goroutine.
// maxEntries <= 0 means unbounded; otherwise the oldest entry is evicted to make room.
func NewMemoryCache(maxEntries int, opts ...MemoryOption) cache.CacheService {
	c := &memoryCache{
		store:      gocache.New(gocache.NoExpiration, 0),
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	entry := raw.(memoryEntry)
	if !c.now().Before(entry.expiresAt) {
		c.store.Delete(key)
		return nil, false
	}
	return entry.value, true
}

func (c *memoryCache) Set(key string, value interface{}, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.store.Get(key); !exists && c.maxEntries > 0 && c.store.ItemCount() >= c.maxEntries {
		c.sweepExpired(now)
		if c.store.ItemCount() >= c.maxEntries {
			c.evictOldest()
		}
	}
	c.store.Set(key, memoryEntry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(duration),
	}, gocache.NoExpiration)
}

// evictOldest drops the entry with the earliest createdAt. Caller holds mu.
func (c *memoryCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		first     = true
	)
	for k, item := range c.store.Items() {
		entry := item.Object.(memoryEntry)
		if first || entry.createdAt.Before(oldestAt) || (entry.createdAt.Equal(oldestAt) && k < oldestKey) {
			oldestKey, oldestAt, first = k, entry.createdAt, false
		}
	}
	if !first {
		c.store.Delete(oldestKey)
	}
}

// sweepExpired drops every entry past its deadline. Caller holds mu.
func (c *memoryCache) sweepExpired(now time.Time) {
	for k, item := range c.store.Items() {
		if !now.Before(item.Object.(memoryEntry).expiresAt) {
			c.store.Delete(k)
		}
	}
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(key)
}

func (c *memoryCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
}

// ItemCount sweeps expired entries first, so only live entries are counted.
func (c *memoryCache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepExpired(c.now())
	return c.store.ItemCount()
}
