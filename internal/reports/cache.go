package reports

import (
	"sync"
	"time"
)

// Cache defaults. Capacity eviction is FIFO on insertion order, not LRU:
// reading an entry never extends its life.
const (
	CacheTTL     = 5 * time.Minute
	CacheMaxSize = 100
)

type cacheEntry struct {
	stats    Statistics
	storedAt time.Time
}

// Cache is a bounded TTL memoization of report results keyed by normalized
// query parameters. Expired entries are treated as misses and deleted
// lazily on access. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]cacheEntry
	order    []string // insertion order, oldest first
	now      func() time.Time
}

// NewCache creates a cache with the given TTL and capacity.
func NewCache(ttl time.Duration, capacity int) *Cache {
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]cacheEntry, capacity),
		now:      time.Now,
	}
}

// NewDefaultCache creates a cache with the standard report TTL and size.
func NewDefaultCache() *Cache {
	return NewCache(CacheTTL, CacheMaxSize)
}

// Get returns the cached statistics for key, or ok=false on miss or
// expiry.
func (c *Cache) Get(key string) (Statistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Statistics{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.remove(key)
		return Statistics{}, false
	}
	return entry.stats, true
}

// Has reports whether key holds a live entry.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores stats under key. Re-setting an existing key refreshes its
// value and timestamp but keeps its insertion position. When the cache
// grows past capacity the oldest-inserted entry is evicted.
func (c *Cache) Set(key string, stats Statistics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{stats: stats, storedAt: c.now()}

	if len(c.entries) > c.capacity {
		c.remove(c.order[0])
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// Len returns the number of stored entries, including any not yet
// lazily expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
