package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexEntries_SectionOrder(t *testing.T) {
	ix := NewSectionIndex()
	ix.Sections["b.md"] = []Section{
		{Header: "B1", Content: "one", Embedding: []float32{1, 0}},
		{Header: "B2", Content: "ab"},
		{Header: "B3", Content: "three", Embedding: []float32{0, 1}},
	}
	ix.Sections["a.md"] = []Section{
		{Header: "A1", Content: "alpha", Embedding: []float32{1, 1}},
	}

	entries := ix.Entries()
	headers := make([]string, len(entries))
	for i, e := range entries {
		headers[i] = e.Header
	}
	assert.Equal(t, []string{"A1", "B1", "B3"}, headers)
}

func TestIndexEntries_Documents(t *testing.T) {
	ix := NewDocumentIndex()
	ix.Documents["z.md"] = []float32{1, 2}
	ix.Documents["y.md"] = []float32{}

	entries := ix.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "z.md", entries[0].DocumentPath)
	assert.Empty(t, entries[0].Header)
}

func TestIndexStats(t *testing.T) {
	ix := NewSectionIndex()
	ix.Sections["a.md"] = []Section{
		{Header: "A", Content: "alpha", Embedding: []float32{1, 0, 0}},
		{Header: "B", Content: "ab"},
	}

	st := ix.Stats()
	assert.Equal(t, Stats{Documents: 1, Sections: 2, EmbeddedSections: 1, Dimension: 3}, st)
}
