package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"semsearch/internal/domain"
)

// QueryCache memoizes ranked results per query and k. Every entry is stamped
// with the index generation it was computed against; swapping the index
// bumps the generation so older entries are never served.
type QueryCache struct {
	mu       sync.RWMutex
	entries  *lru.Cache[string, cacheEntry]
	ttl      time.Duration
	indexGen uint64
}

type cacheEntry struct {
	results   []domain.RankedResult
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	entries, _ := lru.New[string, cacheEntry](maxSize)
	return &QueryCache{
		entries: entries,
		ttl:     ttl,
	}
}

func cacheKey(query string, topK int) string {
	hash := sha256.Sum256([]byte(strconv.Itoa(topK) + "\x00" + query))
	return hex.EncodeToString(hash[:16])
}

// Get returns cached results computed against the current generation.
func (c *QueryCache) Get(query string, topK int) ([]domain.RankedResult, bool) {
	key := cacheKey(query, topK)
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	c.mu.RLock()
	currentGen := c.indexGen
	c.mu.RUnlock()

	if entry.indexGen != currentGen || time.Since(entry.timestamp) > c.ttl {
		c.entries.Remove(key)
		return nil, false
	}

	return cloneResults(entry.results), true
}

// Put stores results computed against generation gen. Results from an
// outdated generation are dropped.
func (c *QueryCache) Put(query string, topK int, gen uint64, results []domain.RankedResult) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if gen != c.indexGen {
		return
	}
	c.entries.Add(cacheKey(query, topK), cacheEntry{
		results:   cloneResults(results),
		timestamp: time.Now(),
		indexGen:  gen,
	})
}

// cloneResults keeps cached slices private to the cache.
func cloneResults(results []domain.RankedResult) []domain.RankedResult {
	out := make([]domain.RankedResult, len(results))
	copy(out, results)
	return out
}

// Invalidate drops every entry and returns the new generation.
func (c *QueryCache) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.indexGen++
	return c.indexGen
}

func (c *QueryCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexGen
}

func (c *QueryCache) Size() int {
	return c.entries.Len()
}
