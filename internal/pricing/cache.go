package pricing

import "sync"

// HistoryCache holds the History built for one corpus version. The caller decides when the
// corpus changed by passing a new version string.
type HistoryCache struct {
	history History
	version string
	built   bool
	mu      sync.RWMutex
}

// NewHistoryCache creates an empty cache.
func NewHistoryCache() *HistoryCache {
	return &HistoryCache{}
}

// Get returns the cached History for version, calling build only when the version differs
// from the one cached.
func (c *HistoryCache) Get(version string, build func() History) History {
	c.mu.RLock()
	if c.built && c.version == version {
		h := c.history
		c.mu.RUnlock()
		return h
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have rebuilt while we waited for the write lock.
	if c.built && c.version == version {
		return c.history
	}

	c.history = build()
	c.version = version
	c.built = true

	return c.history
}

// Invalidate drops the cached History.
func (c *HistoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = History{}
	c.version = ""
	c.built = false
}
