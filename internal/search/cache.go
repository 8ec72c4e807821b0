package search

import (
	"container/list"
	"sync"
)

// ModelCache is an LRU cache of built snapshots keyed by corpus version.
type ModelCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value *Snapshot
}

// NewModelCache creates a cache holding at most capacity versions (minimum 1).
func NewModelCache(capacity int) *ModelCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ModelCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the snapshot cached for version if present.
func (c *ModelCache) Get(version string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[version]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the snapshot for version, evicting the least recently used entry if at capacity.
func (c *ModelCache) Set(version string, value *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[version]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: version, value: value})
	c.cache[version] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Versions returns the cached versions, most recently used first.
func (c *ModelCache) Versions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, c.lru.Len())
	for e := c.lru.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*cacheEntry).key)
	}
	return out
}

// Len returns the number of cached versions.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
