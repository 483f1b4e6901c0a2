package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio"

	"semsearch/internal/domain"
)

// JSONStore reads and writes the index as a single JSON artifact:
//
//	{"guide.md": [{"header": ..., "content": ..., "embedding": [...]}, ...]}   // sections
//	{"guide.md": [0.1, 0.2, ...]}                                           // documents
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

// Encode serializes the index in its own shape.
func Encode(index *domain.Index) ([]byte, error) {
	var payload any
	switch index.Shape {
	case domain.ShapeDocuments:
		documents := index.Documents
		if documents == nil {
			documents = map[string][]float32{}
		}
		payload = documents
	default:
		sections := index.Sections
		if sections == nil {
			sections = map[string][]domain.Section{}
		}
		payload = sections
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return data, nil
}

// Save writes the index atomically; readers see either the previous file or
// the complete new one. Concurrent writers are serialized by a lock file.
func (s *JSONStore) Save(index *domain.Index) error {
	data, err := Encode(index)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.path, err)
	}
	defer lock.Unlock()

	if err := renameio.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Load reads and validates the index.
func (s *JSONStore) Load() (*domain.Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return Decode(data)
}

type entryKind int

const (
	kindEmpty entryKind = iota
	kindSections
	kindVector
)

// Decode parses either index shape. Mixed shapes, non-array entries and
// inconsistent vector lengths are rejected with domain.ErrMalformedIndex.
func Decode(data []byte) (*domain.Index, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("top level must be an object: %v", err)
	}
	if raw == nil {
		return nil, malformed("top level must be an object")
	}

	elems := make(map[string][]json.RawMessage, len(raw))
	shape := kindEmpty

	for path, msg := range raw {
		var items []json.RawMessage
		if err := json.Unmarshal(msg, &items); err != nil || items == nil {
			return nil, malformed("entry %q must be an array", path)
		}

		kind, err := classify(path, items)
		if err != nil {
			return nil, err
		}
		if kind != kindEmpty {
			if shape != kindEmpty && shape != kind {
				return nil, malformed("entry %q mixes section and document granularity", path)
			}
			shape = kind
		}
		elems[path] = items
	}

	if shape == kindVector {
		return decodeDocuments(raw)
	}
	return decodeSections(elems)
}

func classify(path string, items []json.RawMessage) (entryKind, error) {
	kind := kindEmpty
	for _, item := range items {
		var k entryKind
		switch first := firstByte(item); {
		case first == '{':
			k = kindSections
		case first == '-' || (first >= '0' && first <= '9'):
			k = kindVector
		default:
			return kindEmpty, malformed("entry %q has an element that is neither a section nor a number", path)
		}
		if kind != kindEmpty && kind != k {
			return kindEmpty, malformed("entry %q mixes sections and numbers", path)
		}
		kind = k
	}
	return kind, nil
}

func firstByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func decodeSections(elems map[string][]json.RawMessage) (*domain.Index, error) {
	index := domain.NewSectionIndex()
	dim := -1

	for path, items := range elems {
		sections := make([]domain.Section, 0, len(items))
		for i, item := range items {
			var sec struct {
				Header    *string   `json:"header"`
				Content   *string   `json:"content"`
				Embedding []float32 `json:"embedding"`
			}
			if err := json.Unmarshal(item, &sec); err != nil {
				return nil, malformed("entry %q section %d: %v", path, i, err)
			}
			if sec.Header == nil || sec.Content == nil {
				return nil, malformed("entry %q section %d: header and content are required", path, i)
			}
			if len(sec.Embedding) > 0 {
				if dim >= 0 && len(sec.Embedding) != dim {
					return nil, malformed("entry %q section %d: vector length %d, expected %d", path, i, len(sec.Embedding), dim)
				}
				dim = len(sec.Embedding)
			}
			sections = append(sections, domain.Section{
				Header:    *sec.Header,
				Content:   *sec.Content,
				Embedding: sec.Embedding,
			})
		}
		index.Sections[path] = sections
	}

	return index, nil
}

func decodeDocuments(raw map[string]json.RawMessage) (*domain.Index, error) {
	index := domain.NewDocumentIndex()
	dim := -1

	for path, msg := range raw {
		var vec []float32
		if err := json.Unmarshal(msg, &vec); err != nil {
			return nil, malformed("entry %q: %v", path, err)
		}
		if len(vec) > 0 {
			if dim >= 0 && len(vec) != dim {
				return nil, malformed("entry %q: vector length %d, expected %d", path, len(vec), dim)
			}
			dim = len(vec)
		}
		index.Documents[path] = vec
	}

	return index, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedIndex, fmt.Sprintf(format, args...))
}
