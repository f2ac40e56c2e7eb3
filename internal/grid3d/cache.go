package grid3d

import "sync"

// Keys of derived quantities held in the grid cache.
const (
	cacheHandedness = "handedness"
	cacheActiveC    = "active_c"
	cacheActiveF    = "active_f"
	cacheMatrixC    = "active_matrix_c"
	cacheFractureC  = "active_fracture_c"
	cacheColumns    = "column_index"
	cacheGeometrics = "geometrics"
)

// derivedCache memoises quantities derived from the grid stores. Every
// transform clears it. Queries may run concurrently, so access is locked.
type derivedCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func newDerivedCache() *derivedCache {
	return &derivedCache{entries: make(map[string]interface{})}
}

func (c *derivedCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *derivedCache) put(key string, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

func (c *derivedCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{})
}

func (c *derivedCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cached returns the value under key, computing and storing it on a miss.
func cached[T any](c *derivedCache, key string, compute func() T) T {
	if v, ok := c.get(key); ok {
		return v.(T)
	}
	v := compute()
	c.put(key, v)
	return v
}
