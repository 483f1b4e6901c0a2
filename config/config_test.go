package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5, cfg.Index.MinSectionLength)
	assert.Equal(t, []string{"**/*.md"}, cfg.Index.Includes)
	assert.Equal(t, "sections", cfg.Index.Granularity)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, "embeddings.json", cfg.Store.Output)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "semsearch.yaml")

	content := `
index:
  min_section_length: 10
  workers: 2
search:
  top_k: 10
  directory_urls: true
embedding:
  provider: ollama
  model: all-minilm
serve:
  debounce: 2s
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Index.MinSectionLength)
	assert.Equal(t, 2, cfg.Index.Workers)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.True(t, cfg.Search.DirectoryURLs)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.Equal(t, 2*time.Second, cfg.Serve.Debounce)
	// untouched keys keep defaults
	assert.Equal(t, ".html", cfg.Search.RenderedExt)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".semsearch"), 0755))
	content := "store:\n  output: site/search.json\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".semsearch", "config.yaml"), []byte(content), 0644))

	cfg, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "site/search.json", cfg.Store.Output)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semsearch.yaml")
	cfg := DefaultConfig()
	cfg.Search.BaseURL = "/docs/"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/docs/", loaded.Search.BaseURL)
}
