package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/config"
	"semsearch/internal/domain"
)

func withConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	cfg = config.DefaultConfig()
	t.Cleanup(func() { cfg = prev })
	return cfg
}

func TestRunIndex_MissingDocsDir(t *testing.T) {
	c := withConfig(t)
	out := filepath.Join(t.TempDir(), "embeddings.json")
	c.Store.Output = out

	err := runIndex(indexCmd, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	err = runIndex(indexCmd, []string{filepath.Join(t.TempDir(), "missing"), out})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunIndex_WritesIndex(t *testing.T) {
	withConfig(t)

	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.md"), []byte("# Intro\n\nhello world\n\n## Tiny\n\nab\n"), 0644))
	out := filepath.Join(t.TempDir(), "site", "embeddings.json")

	require.NoError(t, runIndex(indexCmd, []string{docs, out}))

	index, err := loadIndex(out)
	require.NoError(t, err)
	require.Len(t, index.Sections["a.md"], 2)
	assert.True(t, index.Sections["a.md"][0].Embedded())
	assert.False(t, index.Sections["a.md"][1].Embedded())
}

func TestLoadIndex_Missing(t *testing.T) {
	_, err := loadIndex(filepath.Join(t.TempDir(), "embeddings.json"))
	assert.ErrorContains(t, err, "semsearch index")
}

func TestIndexShape(t *testing.T) {
	shape, err := indexShape("")
	require.NoError(t, err)
	assert.Equal(t, domain.ShapeSections, shape)

	shape, err = indexShape("documents")
	require.NoError(t, err)
	assert.Equal(t, domain.ShapeDocuments, shape)

	_, err = indexShape("paragraphs")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestIndexPath(t *testing.T) {
	c := config.DefaultConfig()
	assert.Equal(t, "embeddings.json", indexPath("", c))
	assert.Equal(t, "x.json", indexPath("x.json", c))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(0))
	assert.Equal(t, "42s", formatDuration(42e9))
	assert.Equal(t, "2m5s", formatDuration(125e9))
	assert.Equal(t, "1h1m", formatDuration(3660e9))
}
