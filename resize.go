package termplay

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/nfnt/resize"
)

// Maximum number of cached scaled frames. Animated images re-enter scaling
// once per frame at load time, so the cache mostly pays off when the same
// file shows up more than once in a grid.
const scaleCacheSize = 100

type scaleCache struct {
	mu      sync.Mutex
	entries map[string]*image.RGBA
	order   []string // LRU, most recent first
	maxSize int
}

var globalScaleCache = &scaleCache{
	entries: make(map[string]*image.RGBA),
	maxSize: scaleCacheSize,
}

func scaleCacheKey(key string, frame, w, h int, antialias bool) string {
	return fmt.Sprintf("%s#%d_%dx%d_%t", key, frame, w, h, antialias)
}

// scaleFrame scales img to exactly w x h and returns it as RGBA. The key
// identifies the source file for caching; an empty key bypasses the cache.
func scaleFrame(img image.Image, w, h int, antialias bool, key string, frameIndex int) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Dx() == w && bounds.Dy() == h {
		return toRGBA(img)
	}

	cacheKey := ""
	if key != "" {
		cacheKey = scaleCacheKey(key, frameIndex, w, h, antialias)
		if cached := globalScaleCache.get(cacheKey); cached != nil {
			return cached
		}
	}

	// Nearest neighbor keeps hard pixel edges when antialiasing is off;
	// bilinear is a good speed/quality tradeoff at terminal resolutions.
	interp := resize.NearestNeighbor
	if antialias {
		interp = resize.Bilinear
	}

	scaled := toRGBA(resize.Resize(uint(w), uint(h), img, interp))

	if cacheKey != "" {
		globalScaleCache.set(cacheKey, scaled)
	}

	return scaled
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

func (c *scaleCache) get(key string) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.entries[key]
	if !ok {
		return nil
	}
	c.touch(key)
	return img
}

func (c *scaleCache) set(key string, img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = img
		c.touch(key)
		return
	}

	for len(c.entries) >= c.maxSize {
		c.evictLRU()
	}

	c.entries[key] = img
	c.order = append([]string{key}, c.order...)
}

// touch moves key to the front of the access order. Caller holds the lock.
func (c *scaleCache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append([]string{key}, c.order...)
}

// evictLRU drops the least recently used entry. Caller holds the lock.
func (c *scaleCache) evictLRU() {
	if len(c.order) == 0 {
		return
	}
	last := c.order[len(c.order)-1]
	c.order = c.order[:len(c.order)-1]
	delete(c.entries, last)
}

// ClearScaleCache drops all cached scaled frames.
func ClearScaleCache() {
	globalScaleCache.mu.Lock()
	globalScaleCache.entries = make(map[string]*image.RGBA)
	globalScaleCache.order = nil
	globalScaleCache.mu.Unlock()
}
