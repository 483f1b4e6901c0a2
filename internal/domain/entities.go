package domain

import "sort"

// Document is a markdown source file read for indexing.
type Document struct {
	Path  string // corpus-relative, slash separated
	Title string
	Body  string
}

// Section is the smallest retrievable unit of text, anchored to a heading.
type Section struct {
	Header    string    `json:"header"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Embedded reports whether the section participates in ranking.
func (s Section) Embedded() bool {
	return len(s.Embedding) > 0
}

// IndexShape tags which serialized layout an index uses.
type IndexShape int

const (
	ShapeSections IndexShape = iota
	ShapeDocuments
)

func (s IndexShape) String() string {
	switch s {
	case ShapeSections:
		return "sections"
	case ShapeDocuments:
		return "documents"
	default:
		return "unknown"
	}
}

// Index maps document paths to their sections or, in document-granularity
// mode, to a single whole-document vector.
type Index struct {
	Shape     IndexShape
	Sections  map[string][]Section
	Documents map[string][]float32
}

func NewSectionIndex() *Index {
	return &Index{Shape: ShapeSections, Sections: make(map[string][]Section)}
}

func NewDocumentIndex() *Index {
	return &Index{Shape: ShapeDocuments, Documents: make(map[string][]float32)}
}

// Paths returns the document paths in lexical order.
func (ix *Index) Paths() []string {
	var paths []string
	switch ix.Shape {
	case ShapeDocuments:
		paths = make([]string, 0, len(ix.Documents))
		for p := range ix.Documents {
			paths = append(paths, p)
		}
	default:
		paths = make([]string, 0, len(ix.Sections))
		for p := range ix.Sections {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Entry is the shape-independent ranking unit.
type Entry struct {
	DocumentPath string
	Header       string
	Content      string
	Embedding    []float32
}

// Entries flattens the index into ranking order: documents by path, sections
// top to bottom. Entries without an embedding are omitted.
func (ix *Index) Entries() []Entry {
	var entries []Entry
	for _, path := range ix.Paths() {
		if ix.Shape == ShapeDocuments {
			vec := ix.Documents[path]
			if len(vec) > 0 {
				entries = append(entries, Entry{DocumentPath: path, Embedding: vec})
			}
			continue
		}
		for _, s := range ix.Sections[path] {
			if !s.Embedded() {
				continue
			}
			entries = append(entries, Entry{
				DocumentPath: path,
				Header:       s.Header,
				Content:      s.Content,
				Embedding:    s.Embedding,
			})
		}
	}
	return entries
}

// Stats summarizes an index.
type Stats struct {
	Documents        int
	Sections         int
	EmbeddedSections int
	Dimension        int
}

func (ix *Index) Stats() Stats {
	st := Stats{Documents: len(ix.Paths())}
	for _, e := range ix.Entries() {
		st.EmbeddedSections++
		if st.Dimension == 0 {
			st.Dimension = len(e.Embedding)
		}
	}
	if ix.Shape == ShapeDocuments {
		st.Sections = st.EmbeddedSections
		return st
	}
	for _, secs := range ix.Sections {
		st.Sections += len(secs)
	}
	return st
}

type Query struct {
	Text      string
	Embedding []float32
}

// RankedResult is what a presenter renders for one hit.
type RankedResult struct {
	DocumentPath string  `json:"documentPath"`
	Header       string  `json:"header,omitempty"`
	Content      string  `json:"content,omitempty"`
	Score        float64 `json:"score"`
	Link         string  `json:"link"`
}
