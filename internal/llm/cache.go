package llm

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingEmbedder wraps an EmbeddingGenerator with an LRU cache keyed by the
// exact input text. Retrieval re-embeds the same query text often (every
// turn re-queries with the current utterance), so repeated inputs skip the
// provider round-trip entirely.
//
// The cache is only valid for one provider configuration; constructing a new
// CachingEmbedder for a new provider starts empty.
type CachingEmbedder struct {
	inner EmbeddingGenerator
	cache *lru.Cache[string, []float32]
}

// NewCachingEmbedder wraps inner with a cache of the given size.
// A size <= 0 defaults to 512 entries.
func NewCachingEmbedder(inner EmbeddingGenerator, size int) (*CachingEmbedder, error) {
	if size <= 0 {
		size = 512
	}

	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}

	return &CachingEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector when present, otherwise delegates to the
// wrapped provider and caches the result. Provider errors are never cached.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(text, vec)
	return vec, nil
}

// GetModel returns the wrapped provider's model name.
func (c *CachingEmbedder) GetModel() string {
	return c.inner.GetModel()
}

var _ EmbeddingGenerator = (*CachingEmbedder)(nil)
