package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"semsearch/internal/port"
)

// DefaultCacheSize is the number of embeddings kept in memory.
const DefaultCacheSize = 256

// Cached wraps an Embedder with an in-memory LRU and an optional persistent
// cache. Entries are keyed by model name and text, so a model change never
// serves stale vectors.
type Cached struct {
	inner      port.Embedder
	cache      *lru.Cache[string, []float32]
	persistent port.EmbeddingCache
}

func NewCached(inner port.Embedder, size int, persistent port.EmbeddingCache) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &Cached{
		inner:      inner,
		cache:      cache,
		persistent: persistent,
	}
}

func (c *Cached) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(hash[:])
}

// Embed serves cached vectors and forwards only the misses, in one call.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	model := c.inner.ModelName()
	for i, text := range texts {
		key := c.cacheKey(text)
		if vec, ok := c.cache.Get(key); ok {
			results[i] = vec
			continue
		}
		if c.persistent != nil {
			if vec, ok := c.persistent.Get(model, text); ok {
				c.cache.Add(key, vec)
				results[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		results[i] = vecs[j]
		c.cache.Add(c.cacheKey(missTexts[j]), vecs[j])
		if c.persistent != nil {
			if err := c.persistent.Put(model, missTexts[j], vecs[j]); err != nil {
				slog.Warn("embedding_cache_put_failed", slog.String("error", err.Error()))
			}
		}
	}

	return results, nil
}

func (c *Cached) Dimension() int {
	return c.inner.Dimension()
}

func (c *Cached) ModelName() string {
	return c.inner.ModelName()
}

// Reentrant forwards the wrapped embedder's answer; the LRU itself is safe
// for concurrent use.
func (c *Cached) Reentrant() bool {
	r, ok := c.inner.(port.Reentrant)
	return ok && r.Reentrant()
}
