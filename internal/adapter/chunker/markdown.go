package chunker

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownLexer tokenizes markdown with goldmark. Headings keep their plain
// text; every other top-level block is rendered to an HTML fragment.
type MarkdownLexer struct {
	md goldmark.Markdown
}

func NewMarkdownLexer() *MarkdownLexer {
	return &MarkdownLexer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (l *MarkdownLexer) Lex(body string) ([]Block, error) {
	src := []byte(body)
	doc := l.md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			blocks = append(blocks, Block{
				Kind:  BlockHeading,
				Level: h.Level,
				Text:  strings.TrimSpace(plainText(h, src)),
			})
			continue
		}

		var buf bytes.Buffer
		if err := l.md.Renderer().Render(&buf, src, n); err != nil {
			return nil, fmt.Errorf("failed to render %s block: %w", n.Kind(), err)
		}
		blocks = append(blocks, Block{Kind: BlockContent, Text: buf.String()})
	}

	return blocks, nil
}

// plainText concatenates the literal text below n, dropping inline markup.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
