package embed

import (
	"context"
)

// CachedProvider wraps a Provider with a persistent embedding cache so
// repeated ingests of overlapping content skip backend calls.
type CachedProvider struct {
	inner Provider
	cache *Cache
}

// WithCache wraps a Provider with an opened Cache.
func WithCache(p Provider, cache *Cache) *CachedProvider {
	return &CachedProvider{
		inner: p,
		cache: cache,
	}
}

// Embed generates an embedding for the given text, using the cache when possible.
func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(c.inner.Model(), text); ok {
		return cached, nil
	}

	embedding, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(c.inner.Model(), text, embedding); err != nil {
		return nil, NewProviderError("cache", "put", err)
	}
	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts, fetching only the
// uncached ones from the inner provider.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missIndices := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	model := c.inner.Model()
	for i, text := range texts {
		if cached, ok := c.cache.Get(model, text); ok {
			results[i] = cached
		} else {
			missIndices = append(missIndices, i)
			missTexts = append(missTexts, text)
		}
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	fetched, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for i, idx := range missIndices {
		results[idx] = fetched[i]
		if err := c.cache.Put(model, missTexts[i], fetched[i]); err != nil {
			return nil, NewProviderError("cache", "put", err)
		}
	}

	return results, nil
}

// Model returns the inner provider's model name.
func (c *CachedProvider) Model() string {
	return c.inner.Model()
}

// Dimensions returns the inner provider's vector dimensions.
func (c *CachedProvider) Dimensions() int {
	return c.inner.Dimensions()
}

// Ping checks the inner provider.
func (c *CachedProvider) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

// Cache returns the underlying cache.
func (c *CachedProvider) Cache() *Cache {
	return c.cache
}
