package embedding

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedEmbedder memoizes single-text embeddings, which is what repeated
// search queries produce. Batches are passed through uncached.
type CachedEmbedder struct {
	next  Embedder
	cache *cache.Cache
}

var _ Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(next Embedder, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	// Purge expired items every 10 minutes
	return &CachedEmbedder{
		next:  next,
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (c *CachedEmbedder) Model() string {
	return c.next.Model()
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.next.Embed(ctx, texts)
	}

	key := c.next.Model() + "\x00" + texts[0]
	if x, found := c.cache.Get(key); found {
		return [][]float32{x.([]float32)}, nil
	}

	vectors, err := c.next.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyEmbedding
	}
	c.cache.Set(key, vectors[0], cache.DefaultExpiration)
	return vectors, nil
}
