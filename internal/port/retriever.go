package port

import (
	"context"

	"semsearch/internal/domain"
)

// Retriever answers free-text queries against the loaded index.
type Retriever interface {
	// Search returns at most k results ordered by descending score.
	Search(ctx context.Context, query string, k int) ([]domain.RankedResult, error)
}
