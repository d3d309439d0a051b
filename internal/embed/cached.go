package embed

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbeddingCacheSize holds every verse of the full corpus plus recent
// queries; at 384 dimensions that is about 15MB.
const DefaultEmbeddingCacheSize = 10000

// cacheKey scopes a text to the model that embedded it.
type cacheKey struct {
	model string
	text  string
}

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// CachedEmbedder puts an LRU in front of an Embedder. Callers pass
// normalized text, so verses and queries that normalize alike share one
// vector. Safe for concurrent use.
type CachedEmbedder struct {
	inner  Embedder
	model  string
	cache  *lru.Cache[cacheKey, []float32]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedEmbedder wraps inner with a cache of cacheSize vectors. A
// non-positive size uses DefaultEmbeddingCacheSize.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[cacheKey, []float32](cacheSize)
	return &CachedEmbedder{
		inner: inner,
		model: inner.ModelName(),
		cache: cache,
	}
}

func (c *CachedEmbedder) key(text string) cacheKey {
	return cacheKey{model: c.model, text: text}
}

func (c *CachedEmbedder) lookup(text string) ([]float32, bool) {
	vec, ok := c.cache.Get(c.key(text))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return vec, ok
}

// Embed returns the cached vector for text, embedding it on a miss.
// Failures are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lookup(text); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(c.key(text), vec)
	return vec, nil
}

// EmbedBatch returns one vector per text, in order. Texts that are cached,
// or repeated within the batch, are not sent to the inner embedder.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// pending maps each uncached text to the result slots waiting for it.
	pending := make(map[string][]int)
	var order []string
	for i, text := range texts {
		if slots, ok := pending[text]; ok {
			pending[text] = append(slots, i)
			continue
		}
		if vec, ok := c.lookup(text); ok {
			results[i] = vec
			continue
		}
		pending[text] = []int{i}
		order = append(order, text)
	}
	if len(order) == 0 {
		return results, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, order)
	if err != nil {
		return nil, err
	}
	for j, text := range order {
		c.cache.Add(c.key(text), vecs[j])
		for _, i := range pending[text] {
			results[i] = vecs[j]
		}
	}
	return results, nil
}

// Dimensions returns the inner embedder's dimensions.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelName returns the inner embedder's model name.
func (c *CachedEmbedder) ModelName() string {
	return c.model
}

// Close drops the cache and closes the inner embedder.
func (c *CachedEmbedder) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Stats returns lookup counts since creation.
func (c *CachedEmbedder) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.cache.Len(),
	}
}

// Inner returns the wrapped embedder.
func (c *CachedEmbedder) Inner() Embedder {
	return c.inner
}
