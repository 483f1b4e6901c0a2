package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/adapter/analyzer"
)

func TestMarkdownLexer_Blocks(t *testing.T) {
	src := "Intro text.\n\n# Title\n\nSome *emphasis* here.\n\n## Getting `Started`!\n\n- one\n- two\n\n```go\nfmt.Println(1)\n```\n"

	blocks, err := NewMarkdownLexer().Lex(src)
	require.NoError(t, err)
	require.Len(t, blocks, 6)

	assert.Equal(t, BlockContent, blocks[0].Kind)
	assert.Equal(t, "Intro text.", analyzer.Normalize(blocks[0].Text))

	assert.Equal(t, BlockHeading, blocks[1].Kind)
	assert.Equal(t, 1, blocks[1].Level)
	assert.Equal(t, "Title", blocks[1].Text)

	assert.Equal(t, "Some emphasis here.", analyzer.Normalize(blocks[2].Text))
	assert.Contains(t, blocks[2].Text, "<em>emphasis</em>")

	assert.Equal(t, BlockHeading, blocks[3].Kind)
	assert.Equal(t, 2, blocks[3].Level)
	assert.Equal(t, "Getting Started!", blocks[3].Text)

	assert.Equal(t, "one two", analyzer.Normalize(blocks[4].Text))
	assert.Equal(t, "fmt.Println(1)", analyzer.Normalize(blocks[5].Text))
}

func TestMarkdownLexer_SetextHeading(t *testing.T) {
	blocks, err := NewMarkdownLexer().Lex("Overview\n========\n\nbody\n")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockHeading, blocks[0].Kind)
	assert.Equal(t, "Overview", blocks[0].Text)
}

func TestMarkdownLexer_Empty(t *testing.T) {
	blocks, err := NewMarkdownLexer().Lex("")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
