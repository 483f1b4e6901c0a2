package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"semsearch/internal/adapter/cache"
	"semsearch/internal/adapter/embedding"
	"semsearch/internal/domain"
	"semsearch/internal/port"
)

// DefaultTopK is used when a caller passes k <= 0.
const DefaultTopK = 5

// snapshot is an immutable view of one loaded index.
type snapshot struct {
	index     *domain.Index
	entries   []domain.Entry
	dimension int
	gen       uint64
}

// SemanticRetriever ranks index entries by cosine similarity to the query
// embedding. The loaded index is read-only; Swap replaces it atomically, so a
// query sees either the old or the new index in full.
type SemanticRetriever struct {
	embedder port.Embedder
	links    LinkOptions
	defaultK int
	cache    *cache.QueryCache
	current  atomic.Pointer[snapshot]
}

// RetrieverOptions tunes a SemanticRetriever.
type RetrieverOptions struct {
	Links    LinkOptions
	DefaultK int
	Cache    *cache.QueryCache // optional
}

// NewSemanticRetriever creates a retriever over index. Embedders that are not
// reentrant are serialized.
func NewSemanticRetriever(embedder port.Embedder, index *domain.Index, opts RetrieverOptions) *SemanticRetriever {
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultTopK
	}
	r := &SemanticRetriever{
		embedder: embedding.Guard(embedder),
		links:    opts.Links,
		defaultK: opts.DefaultK,
		cache:    opts.Cache,
	}
	if index == nil {
		index = domain.NewSectionIndex()
	}
	r.Swap(index)
	return r
}

// Swap replaces the loaded index.
func (r *SemanticRetriever) Swap(index *domain.Index) {
	snap := &snapshot{index: index, entries: index.Entries()}
	for _, e := range snap.entries {
		snap.dimension = len(e.Embedding)
		break
	}
	if r.cache != nil {
		snap.gen = r.cache.Invalidate()
	}
	r.current.Store(snap)
}

// Index returns the currently loaded index.
func (r *SemanticRetriever) Index() *domain.Index {
	return r.current.Load().index
}

// Search embeds query and returns the k best entries. An empty query yields
// no results and no error.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.RankedResult{}, nil
	}
	if k <= 0 {
		k = r.defaultK
	}

	snap := r.current.Load()
	if r.cache != nil {
		if results, ok := r.cache.Get(query, k); ok {
			return results, nil
		}
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w: %w", domain.ErrProvider, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: embedding returned empty result", domain.ErrProvider)
	}
	q := domain.Query{Text: query, Embedding: embeddings[0]}
	if snap.dimension > 0 && len(q.Embedding) != snap.dimension {
		return nil, fmt.Errorf("%w: query vector length %d does not match index length %d", domain.ErrProvider, len(q.Embedding), snap.dimension)
	}

	results := r.rank(snap, q, k)
	if r.cache != nil {
		r.cache.Put(query, k, snap.gen, results)
	}
	return results, nil
}

// rank scores every entry, sorts by descending score keeping encounter order
// for ties, and resolves links for the top k.
func (r *SemanticRetriever) rank(snap *snapshot, q domain.Query, k int) []domain.RankedResult {
	type scored struct {
		entry *domain.Entry
		score float64
	}

	scores := make([]scored, len(snap.entries))
	for i := range snap.entries {
		scores[i] = scored{
			entry: &snap.entries[i],
			score: CosineSimilarity(q.Embedding, snap.entries[i].Embedding),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.RankedResult, k)
	for i := 0; i < k; i++ {
		e := scores[i].entry
		results[i] = domain.RankedResult{
			DocumentPath: e.DocumentPath,
			Header:       e.Header,
			Content:      e.Content,
			Score:        scores[i].score,
			Link:         r.links.Link(e.DocumentPath, e.Header),
		}
	}
	return results
}
