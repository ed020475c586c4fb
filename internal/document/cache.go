package document

import (
	"context"
	"math"

	"github.com/gogpu/gg/cache"
)

type bitmapKey struct {
	page  int
	scale uint64
}

func hashBitmapKey(k bitmapKey) uint64 {
	return uint64(k.page)*0x9e3779b97f4a7c15 ^ k.scale
}

// CachedDocument memoizes rendered bitmaps per page and scale.
type CachedDocument struct {
	Document
	bitmaps *cache.ShardedCache[bitmapKey, *Bitmap]
}

// Cached wraps doc with an LRU of roughly capacity bitmaps. Zooming back to
// a scale seen recently is then served from memory.
func Cached(doc Document, capacity int) *CachedDocument {
	perShard := max(1, (capacity+cache.DefaultShardCount-1)/cache.DefaultShardCount)
	return &CachedDocument{
		Document: doc,
		bitmaps:  cache.NewSharded[bitmapKey, *Bitmap](perShard, hashBitmapKey),
	}
}

func (c *CachedDocument) Page(ctx context.Context, index int) (PageHandle, error) {
	h, err := c.Document.Page(ctx, index)
	if err != nil {
		return nil, err
	}
	return &cachedPage{PageHandle: h, bitmaps: c.bitmaps}, nil
}

// PageText forwards to the wrapped document when it supports text.
func (c *CachedDocument) PageText(ctx context.Context, index int) (string, error) {
	t, ok := c.Document.(Texter)
	if !ok {
		return "", ErrUnsupported
	}
	return t.PageText(ctx, index)
}

// Stats reports cache hit and miss counters.
func (c *CachedDocument) Stats() cache.Stats {
	return c.bitmaps.Stats()
}

// Unwrap returns the wrapped document.
func (c *CachedDocument) Unwrap() Document { return c.Document }

func (c *CachedDocument) Close() error {
	c.bitmaps.Clear()
	return c.Document.Close()
}

type cachedPage struct {
	PageHandle
	bitmaps *cache.ShardedCache[bitmapKey, *Bitmap]
}

func (p *cachedPage) Render(ctx context.Context, scale float64) (*Bitmap, error) {
	key := bitmapKey{page: p.Index(), scale: math.Float64bits(scale)}
	if b, ok := p.bitmaps.Get(key); ok {
		return b, nil
	}
	b, err := p.PageHandle.Render(ctx, scale)
	if err != nil {
		return nil, err
	}
	p.bitmaps.Set(key, b)
	return b, nil
}
