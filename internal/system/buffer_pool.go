package system

import (
	"image"
	"sync"
)

// ImagePool recycles frame buffers per size so the rasteriser does not
// allocate a full frame for every tick
type ImagePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var globalPool = NewImagePool()

// GetImage returns a cleared frame of the given bounds from the shared pool
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage hands a frame back to the shared pool
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) pool(rect image.Rectangle) *sync.Pool {
	p.mu.RLock()
	pool, ok := p.pools[rect]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok = p.pools[rect]; !ok {
		pool = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
		p.pools[rect] = pool
	}
	return pool
}

// Get returns a zeroed frame
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.pool(rect).Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

// Put recycles img; frames of a size never requested are dropped
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect]
	p.mu.RUnlock()
	if ok {
		pool.Put(img)
	}
}
