package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the embedding cache at roughly 10k vectors.
const defaultCacheSize = 10000

// CachingProvider decorates any Provider with an LRU cache keyed by content
// hash. Re-embedding identical text is a pure waste of provider calls.
type CachingProvider struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// WithCache wraps a provider in an LRU cache of the given size.
func WithCache(inner Provider, size int) *CachingProvider {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		cache, _ = lru.New[string, []float32](defaultCacheSize)
	}
	return &CachingProvider{inner: inner, cache: cache}
}

// Embed implements Provider.
func (c *CachingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := ContentHash(text)
	if v, ok := c.cache.Get(key); ok {
		return copyVector(v), nil
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, copyVector(v))
	return v, nil
}

// EmbedBatch implements Provider. Cached entries are served locally; only
// the misses go to the inner provider, in one call, and the response is
// stitched back into input order.
func (c *CachingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if v, ok := c.cache.Get(ContentHash(text)); ok {
			results[i] = copyVector(v)
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}

	if len(missTexts) > 0 {
		vectors, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, v := range vectors {
			i := missIdx[j]
			results[i] = v
			c.cache.Add(ContentHash(texts[i]), copyVector(v))
		}
	}

	return results, nil
}

// Dimension implements Provider.
func (c *CachingProvider) Dimension() int { return c.inner.Dimension() }

// ModelName implements Provider.
func (c *CachingProvider) ModelName() string { return c.inner.ModelName() }

// Close implements Provider.
func (c *CachingProvider) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

// Len returns the current cache population.
func (c *CachingProvider) Len() int { return c.cache.Len() }

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
