package registry

import (
	"sync"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

// bundleCache is a bounded cache of deserialized bundles keyed by
// version. Eviction is insertion-order (oldest-inserted first), not
// recency-of-use: cached bundles are trusted for the process lifetime,
// so there is nothing to gain from tracking reads.
type bundleCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]*domain.Bundle
	order    []string
}

func newBundleCache(capacity int) *bundleCache {
	return &bundleCache{
		capacity: capacity,
		entries:  make(map[string]*domain.Bundle, capacity),
	}
}

func (c *bundleCache) get(version string) (*domain.Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[version]
	return b, ok
}

// put inserts a bundle, evicting the oldest-inserted entry when full.
// Re-inserting an existing version replaces the value in place (two
// concurrent cold loads may race; last write wins).
func (c *bundleCache) put(version string, b *domain.Bundle) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[version]; ok {
		c.entries[version] = b
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[version] = b
	c.order = append(c.order, version)
}

func (c *bundleCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
