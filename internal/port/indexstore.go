package port

import "semsearch/internal/domain"

// IndexStore persists the serialized index artifact.
type IndexStore interface {
	// Save replaces the stored index atomically.
	Save(index *domain.Index) error

	// Load reads and validates the stored index.
	Load() (*domain.Index, error)
}
