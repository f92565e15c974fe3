package texture

import (
	"image"
	"sync"
)

// Resolver resolves a texture path to a decoded image, optionally resized to
// a size×size square. A size of 0 keeps the natural dimensions.
type Resolver interface {
	Resolve(path string, size int) (*image.NRGBA, error)
}

type cacheKey struct {
	path string
	size int
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[cacheKey]*cacheEntry
}

// NewCache creates an empty texture cache.
func NewCache() *Cache {
	return &Cache{items: make(map[cacheKey]*cacheEntry)}
}

// Resolve loads and caches a texture. Decode failures are cached too, so a
// bad file is reported once per key without being re-read.
func (c *Cache) Resolve(path string, size int) (*image.NRGBA, error) {
	key := cacheKey{path: path, size: size}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[key]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	// Slow path: natural size first (itself cached), then resize
	var (
		img *image.NRGBA
		err error
	)
	if size > 0 {
		var src *image.NRGBA
		if src, err = c.Resolve(path, 0); err == nil {
			img = Resize(src, size, size)
		}
	} else {
		img, err = Load(path)
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[key]; exists {
		return entry.img, entry.err
	}
	c.items[key] = &cacheEntry{img: img, err: err}

	return img, err
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
