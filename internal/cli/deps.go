package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"semsearch/config"
	"semsearch/internal/adapter/cache"
	"semsearch/internal/adapter/chunker"
	"semsearch/internal/adapter/embedding"
	semfs "semsearch/internal/adapter/fs"
	"semsearch/internal/adapter/retriever"
	"semsearch/internal/adapter/store"
	"semsearch/internal/domain"
	"semsearch/internal/port"
	"semsearch/internal/usecase"
)

// newEmbedder builds the configured provider behind the in-memory LRU and,
// when embedding.cache_path is set, the persistent bbolt cache. The returned
// cleanup closes the cache.
func newEmbedder(cfg *config.Config) (port.Embedder, func(), error) {
	inner, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var persistent port.EmbeddingCache
	cleanup := func() {}
	if cfg.Embedding.CachePath != "" {
		bolt, err := store.OpenBoltCache(cfg.Embedding.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open embedding cache: %w", err)
		}
		persistent = bolt
		cleanup = func() { bolt.Close() }
	}

	return embedding.NewCached(inner, cfg.Embedding.QueryCacheSize, persistent), cleanup, nil
}

func indexShape(granularity string) (domain.IndexShape, error) {
	switch granularity {
	case "", "sections":
		return domain.ShapeSections, nil
	case "documents":
		return domain.ShapeDocuments, nil
	default:
		return 0, fmt.Errorf("%w: unknown index granularity %q", domain.ErrConfiguration, granularity)
	}
}

func newIndexUseCase(cfg *config.Config, emb port.Embedder) (*usecase.IndexUseCase, *semfs.Walker, error) {
	shape, err := indexShape(cfg.Index.Granularity)
	if err != nil {
		return nil, nil, err
	}
	walker := semfs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	uc := usecase.NewIndexUseCase(walker, chunker.NewSectionChunker(nil), emb, usecase.IndexOptions{
		MinSectionLength: cfg.Index.MinSectionLength,
		Workers:          cfg.Index.Workers,
		Shape:            shape,
	})
	return uc, walker, nil
}

// loadIndex reads the index store at path.
func loadIndex(path string) (*domain.Index, error) {
	index, err := store.NewJSONStore(path).Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no index found at %s. Run 'semsearch index' first", path)
	}
	return index, err
}

func newRetriever(cfg *config.Config, emb port.Embedder, index *domain.Index) *retriever.SemanticRetriever {
	return retriever.NewSemanticRetriever(emb, index, retriever.RetrieverOptions{
		Links: retriever.LinkOptions{
			BaseURL:       cfg.Search.BaseURL,
			RenderedExt:   cfg.Search.RenderedExt,
			DirectoryURLs: cfg.Search.DirectoryURLs,
		},
		DefaultK: cfg.Search.TopK,
		Cache:    cache.NewQueryCache(cfg.Search.ResultCacheSize, 0),
	})
}

// indexPath resolves the --index flag against the configured output.
func indexPath(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Store.Output
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
