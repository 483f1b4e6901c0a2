// Package memstore keeps the serialized index in memory. It is used where
// there is no filesystem, such as the browser build, and in tests.
package memstore

import (
	"fmt"
	"os"
	"sync"

	"semsearch/internal/adapter/store"
	"semsearch/internal/domain"
)

// MemoryStore holds one encoded index artifact. Load always decodes, so it
// applies the same validation as the file store.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(index *domain.Index) error {
	data, err := store.Encode(index)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *MemoryStore) Load() (*domain.Index, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()

	if data == nil {
		return nil, fmt.Errorf("failed to read index: %w", os.ErrNotExist)
	}
	return store.Decode(data)
}

// Put validates and stores an already encoded artifact.
func (s *MemoryStore) Put(data []byte) (*domain.Index, error) {
	index, err := store.Decode(data)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return index, nil
}

// Bytes returns the stored artifact, or nil.
func (s *MemoryStore) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
}
