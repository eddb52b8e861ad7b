package marketdata

import (
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// cacheEntry holds one serialized price series and its expiry.
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// Cache is an in-memory TTL cache for fetched price series. Entries are stored
// msgpack-encoded so a cached series cannot be mutated by one request while
// another decodes it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a cache with the given entry TTL. A zero TTL disables
// caching entirely.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func cacheKey(symbol, period string) string {
	return fmt.Sprintf("%s|%s", symbol, period)
}

// Get returns the cached series for symbol/period, if present and fresh.
func (c *Cache) Get(symbol, period string) (*PriceSeries, bool) {
	if c.ttl == 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[cacheKey(symbol, period)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	var series PriceSeries
	if err := msgpack.Unmarshal(entry.data, &series); err != nil {
		return nil, false
	}
	return &series, true
}

// Set stores a series under symbol/period.
func (c *Cache) Set(symbol, period string, series *PriceSeries) {
	if c.ttl == 0 {
		return
	}

	data, err := msgpack.Marshal(series)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.entries[cacheKey(symbol, period)] = cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Clear drops all cached entries and reports how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	return removed
}

// Len reports the number of cached entries, fresh or expired.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
