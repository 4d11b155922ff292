package assets

import (
	"sync"
	"time"

	"github.com/Faultbox/xrviewer/internal/engine/scene"
)

type cacheEntry struct {
	modTime time.Time
	model   *scene.Model
}

// Cache keeps imported models keyed by path and the newest modification time
// in the asset directory, so reloading an unchanged asset skips the import.
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]cacheEntry),
	}
}

// Get returns the model cached for path if it was imported when the asset
// directory had the same newest modification time.
func (c *Cache) Get(path string, modTime time.Time) (*scene.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[path]
	if ok && e.modTime.Equal(modTime) {
		c.hits++
		return e.model, true
	}
	c.misses++
	return nil, false
}

// Set stores a model.
func (c *Cache) Set(path string, modTime time.Time, m *scene.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[path] = cacheEntry{modTime: modTime, model: m}
}

// Clear drops every entry and resets the stats.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
