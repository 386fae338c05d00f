package dedup

import (
	"sync"

	"gocv.io/x/gocv"
)

// descriptorCache stores computed ORB descriptor matrices keyed by image
// path, so a page accepted into the corpus is not re-described on every
// later duplicate check. Entries own their Mat and release it on eviction.
//
// descriptorCache is safe for concurrent use, although the pipeline itself
// runs strictly sequentially.
type descriptorCache struct {
	mu   sync.RWMutex
	mats map[string]*gocv.Mat
}

func newDescriptorCache() *descriptorCache {
	return &descriptorCache{
		mats: make(map[string]*gocv.Mat),
	}
}

// Get returns the cached descriptors for path, if present.
func (c *descriptorCache) Get(path string) (*gocv.Mat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	des, ok := c.mats[path]
	return des, ok
}

// Put stores des under path, taking ownership of the Mat, and returns the
// stored pointer. An existing entry for the same path is released first.
func (c *descriptorCache) Put(path string, des gocv.Mat) *gocv.Mat {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.mats[path]; ok {
		old.Close()
	}
	c.mats[path] = &des
	return &des
}

// Evict releases and removes the entry for path, if any.
func (c *descriptorCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if des, ok := c.mats[path]; ok {
		des.Close()
		delete(c.mats, path)
	}
}

// Clear releases every cached Mat and empties the cache.
func (c *descriptorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, des := range c.mats {
		des.Close()
		delete(c.mats, path)
	}
}
