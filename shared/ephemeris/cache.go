package ephemeris

import (
	"sync"

	"latency.space/orrery/shared/celestial"
)

// default number of paths kept before the cache starts over
const defaultPathCacheSize = 1024

// pathKey carries the catalog version the elements were read from, so a path computed
// from replaced elements can never be served after a refresh.
type pathKey struct {
	id       string
	version  uint64
	epoch    float64
	segments int
}

// PathCache memoises orbit paths per (body, epoch, segments). A path depends only on
// the elements at its epoch, so entries stay valid until the catalog changes.
type PathCache struct {
	mu      sync.RWMutex
	paths   map[pathKey]celestial.OrbitPath
	maxSize int
	hits    uint64
	misses  uint64
}

func NewPathCache(maxSize int) *PathCache {
	if maxSize <= 0 {
		maxSize = defaultPathCacheSize
	}
	return &PathCache{paths: make(map[pathKey]celestial.OrbitPath), maxSize: maxSize}
}

// getOrCompute returns the cached path or builds, stores and returns a new one.
// compute runs outside the lock, so racing callers may both compute the same
// (deterministic) path.
func (c *PathCache) getOrCompute(key pathKey, compute func() (celestial.OrbitPath, error)) (celestial.OrbitPath, error) {
	c.mu.RLock()
	path, ok := c.paths[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return path, nil
	}

	path, err := compute()
	if err != nil {
		return celestial.OrbitPath{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	if len(c.paths) >= c.maxSize {
		c.paths = make(map[pathKey]celestial.OrbitPath)
	}
	c.paths[key] = path
	return path, nil
}

// Invalidate drops every cached path.
func (c *PathCache) Invalidate() {
	c.mu.Lock()
	c.paths = make(map[pathKey]celestial.OrbitPath)
	c.mu.Unlock()
}

// Stats returns the cache size and hit/miss counters.
func (c *PathCache) Stats() (size int, hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.paths), c.hits, c.misses
}
