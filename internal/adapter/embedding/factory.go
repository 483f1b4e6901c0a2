package embedding

import (
	"fmt"

	"semsearch/config"
	"semsearch/internal/domain"
	"semsearch/internal/port"
)

// New creates the embedder named by cfg.Provider.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := OpenAIOptions{
		BaseURL:           cfg.BaseURL,
		Dimension:         cfg.Dimension,
		BatchSize:         cfg.BatchSize,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}

	switch cfg.Provider {
	case "", "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, opts)
	case "jina":
		return NewJinaEmbedder(cfg.APIKeyEnv, cfg.Model, opts)
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, opts)
	case "mock":
		return NewMockEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrConfiguration, cfg.Provider)
	}
}
