package port

import "context"

// Embedder generates vector embeddings for text. The same model and
// configuration must be used at index time and query time.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// Reentrant is implemented by embedders that allow concurrent Embed calls.
// Embedders that do not implement it are assumed to allow one call at a time.
type Reentrant interface {
	Reentrant() bool
}

// EmbeddingCache memoizes embeddings by model and text.
type EmbeddingCache interface {
	Get(model, text string) ([]float32, bool)
	Put(model, text string, vec []float32) error
}
