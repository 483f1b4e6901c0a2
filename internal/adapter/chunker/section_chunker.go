package chunker

import (
	"fmt"

	"semsearch/internal/domain"
)

// SectionChunker splits a markdown document into raw sections.
type SectionChunker struct {
	lexer Lexer
}

func NewSectionChunker(lexer Lexer) *SectionChunker {
	if lexer == nil {
		lexer = NewMarkdownLexer()
	}
	return &SectionChunker{lexer: lexer}
}

// Chunk strips front matter, lexes the body and segments it. The returned
// document carries the front matter title.
func (c *SectionChunker) Chunk(doc domain.Document) (domain.Document, []RawSection, error) {
	body, meta, err := StripFrontMatter(doc.Body)
	if err != nil {
		return doc, nil, err
	}
	if meta.Title != "" {
		doc.Title = meta.Title
	}

	blocks, err := c.lexer.Lex(body)
	if err != nil {
		return doc, nil, fmt.Errorf("failed to lex %s: %w", doc.Path, err)
	}

	return doc, Segment(blocks), nil
}
