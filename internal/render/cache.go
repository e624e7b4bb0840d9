package render

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"arena-client/internal/entity"
)

// DefaultMaxTextures bounds the shared texture cache.
const DefaultMaxTextures = 256

// textureKey is everything a texture depends on. Names and bars are drawn
// per frame, so handles that differ only in those share a texture.
type textureKey struct {
	kind  entity.Kind
	color color.RGBA
	size  float64
}

// TextureCache stores built textures with LRU eviction.
type TextureCache struct {
	mu      sync.Mutex
	images  map[textureKey]image.Image
	order   []textureKey // LRU order (oldest first)
	maxSize int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewTextureCache creates a cache holding at most maxSize textures.
func NewTextureCache(maxSize int) *TextureCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxTextures
	}
	return &TextureCache{
		images:  make(map[textureKey]image.Image),
		order:   make([]textureKey, 0, maxSize),
		maxSize: maxSize,
	}
}

// GetOrBuild returns the cached texture for key, building it on a miss.
func (c *TextureCache) GetOrBuild(key textureKey, build func() image.Image) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[key]; ok {
		c.hits.Add(1)
		c.touch(key)
		return img
	}
	c.misses.Add(1)

	img := build()
	if len(c.images) >= c.maxSize {
		c.evict()
	}
	c.images[key] = img
	c.order = append(c.order, key)
	return img
}

// touch moves key to the newest end.
func (c *TextureCache) touch(key textureKey) {
	for i, k := range c.order {
		if k == key {
			copy(c.order[i:], c.order[i+1:])
			c.order[len(c.order)-1] = key
			return
		}
	}
}

// evict removes the least recently used texture.
func (c *TextureCache) evict() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.images, oldest)
}

// Size returns the number of cached textures.
func (c *TextureCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Stats returns hit and miss counts.
func (c *TextureCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
