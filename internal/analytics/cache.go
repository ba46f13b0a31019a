package analytics

import (
	"sync"
	"time"
)

// statsCache holds the last per-endpoint aggregation. Saves from send
// goroutines and reads from the UI may interleave.
type statsCache struct {
	mu          sync.RWMutex
	stats       []Stats
	valid       bool
	lastRefresh time.Time
	ttl         time.Duration
	now         func() time.Time
	// generation counts invalidations so a query that raced one is not cached
	generation uint64
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{ttl: ttl, now: time.Now}
}

// get returns the cached stats if present and fresh. On a miss it returns
// the generation to hand back to set.
func (c *statsCache) get() ([]Stats, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || c.now().Sub(c.lastRefresh) > c.ttl {
		return nil, c.generation, false
	}
	return c.stats, c.generation, true
}

// set stores stats computed since get returned generation. It does nothing
// when an invalidation happened in between.
func (c *statsCache) set(stats []Stats, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	c.stats = stats
	c.valid = true
	c.lastRefresh = c.now()
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = nil
	c.valid = false
	c.generation++
}
