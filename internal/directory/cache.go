package directory

import (
	"sort"
	"sync"
)

// cache is the in-process response cache. Entries are keyed by the
// fully-qualified endpoint string (path plus query parameters) and hold the
// raw response body. There is no expiry: entries live until an operator
// explicitly clears the cache, trading staleness for call deduplication
// within and across enrichment runs.
type cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newCache() *cache {
	return &cache{entries: make(map[string][]byte)}
}

func (c *cache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	body, ok := c.entries[key]
	return body, ok
}

func (c *cache) set(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = body
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]byte)
}

// CacheStats describes the current cache contents.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

func (c *cache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return CacheStats{Size: len(keys), Keys: keys}
}
