package chunker

// BlockKind distinguishes section boundaries from section content.
type BlockKind int

const (
	BlockContent BlockKind = iota
	BlockHeading
)

// Block is one block-level token of a parsed document body.
type Block struct {
	Kind  BlockKind
	Level int    // heading level, 0 for content
	Text  string // heading text, or the rendered fragment for content
}

// Lexer turns a document body into block-level tokens.
type Lexer interface {
	Lex(body string) ([]Block, error)
}

// RawSection is a segmented section before normalization.
type RawSection struct {
	Header  string
	Content string
}
