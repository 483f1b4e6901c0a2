package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/adapter/chunker"
	"semsearch/internal/adapter/embedding"
	"semsearch/internal/adapter/fs"
	"semsearch/internal/adapter/memstore"
	"semsearch/internal/domain"
	"semsearch/internal/port"
)

func newTestIndexUseCase(emb port.Embedder, opts IndexOptions) *IndexUseCase {
	return NewIndexUseCase(fs.NewWalker([]string{"**/*.md"}, nil), chunker.NewSectionChunker(nil), emb, opts)
}

func TestBuildIndex_Sections(t *testing.T) {
	uc := newTestIndexUseCase(embedding.NewHashEmbedder(64), IndexOptions{Workers: 2})

	docs := []domain.Document{
		{Path: "a.md", Body: "# Intro\n\nhello <em>world</em>\n\n## Tiny\n\nab\n"},
		{Path: "b.md", Body: "---\ntitle: Setup Guide\n---\n# Setup\n\ninstall the package\n"},
	}

	ix, res, err := uc.BuildIndex(context.Background(), docs, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ShapeSections, ix.Shape)
	require.Len(t, ix.Sections["a.md"], 2)

	intro := ix.Sections["a.md"][0]
	assert.Equal(t, "Intro", intro.Header)
	assert.Equal(t, "hello world", intro.Content)
	assert.Len(t, intro.Embedding, 64)

	tiny := ix.Sections["a.md"][1]
	assert.Equal(t, "ab", tiny.Content)
	assert.False(t, tiny.Embedded())

	require.Len(t, ix.Sections["b.md"], 1)
	assert.Equal(t, "install the package", ix.Sections["b.md"][0].Content)

	assert.Equal(t, 2, res.FilesIndexed)
	assert.Equal(t, 3, res.SectionsIndexed)
	assert.Equal(t, 2, res.SectionsEmbedded)
	assert.Equal(t, 1, res.SectionsSkipped)
}

func TestBuildIndex_DeterministicAcrossWorkers(t *testing.T) {
	var docs []domain.Document
	for _, name := range []string{"c.md", "a.md", "b.md", "d.md"} {
		docs = append(docs, domain.Document{Path: name, Body: "# " + name + "\n\ncontent of " + name + "\n"})
	}

	serial, _, err := newTestIndexUseCase(embedding.NewHashEmbedder(32), IndexOptions{Workers: 1}).
		BuildIndex(context.Background(), docs, nil)
	require.NoError(t, err)
	parallel, _, err := newTestIndexUseCase(embedding.NewHashEmbedder(32), IndexOptions{Workers: 4}).
		BuildIndex(context.Background(), docs, nil)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestBuildIndex_Documents(t *testing.T) {
	uc := newTestIndexUseCase(embedding.NewHashEmbedder(16), IndexOptions{Shape: domain.ShapeDocuments})

	docs := []domain.Document{
		{Path: "a.md", Body: "# Intro\n\nhello world\n"},
		{Path: "empty.md", Body: "# Nothing\n"},
	}

	ix, res, err := uc.BuildIndex(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ShapeDocuments, ix.Shape)
	assert.Len(t, ix.Documents["a.md"], 16)
	assert.NotContains(t, ix.Documents, "empty.md")
	assert.Equal(t, 1, res.SectionsEmbedded)
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}
func (failingEmbedder) Dimension() int    { return 2 }
func (failingEmbedder) ModelName() string { return "failing" }

func TestBuildIndex_ProviderFailureAborts(t *testing.T) {
	uc := newTestIndexUseCase(failingEmbedder{}, IndexOptions{})

	ix, res, err := uc.BuildIndex(context.Background(), []domain.Document{
		{Path: "a.md", Body: "# Intro\n\nhello world\n"},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "a.md")
	assert.Nil(t, ix)
	assert.Nil(t, res)
}

// peakEmbedder records the highest number of concurrent Embed calls.
type peakEmbedder struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *peakEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(len(texts[i]))}
	}
	return out, nil
}
func (p *peakEmbedder) Dimension() int    { return 2 }
func (p *peakEmbedder) ModelName() string { return "peak" }

func TestBuildIndex_NonReentrantProviderIsSerialized(t *testing.T) {
	emb := &peakEmbedder{}
	uc := newTestIndexUseCase(emb, IndexOptions{Workers: 8})

	var docs []domain.Document
	for i := 0; i < 32; i++ {
		docs = append(docs, domain.Document{Path: string(rune('a'+i%26)) + ".md", Body: "# H\n\nsome body text\n"})
	}

	_, _, err := uc.BuildIndex(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), emb.peak.Load())
}

func TestIndex_WalksDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guide"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "guide", "setup.md"), []byte("# Setup\n\ninstall the package\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Intro\n\nhello world\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0644))

	uc := newTestIndexUseCase(embedding.NewHashEmbedder(32), IndexOptions{Workers: 2})

	var mu sync.Mutex
	var seen []string
	ix, res, err := uc.Index(context.Background(), root, func(processed, total int, path string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, total)
		seen = append(seen, path)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"guide/setup.md", "index.md"}, ix.Paths())
	assert.ElementsMatch(t, []string{"guide/setup.md", "index.md"}, seen)
	assert.Equal(t, 2, res.FilesFound)
}

func TestIndex_MissingRoot(t *testing.T) {
	uc := newTestIndexUseCase(embedding.NewHashEmbedder(32), IndexOptions{})
	_, _, err := uc.Index(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestRebuild(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# Intro\n\nhello world\n"), 0644))

	uc := newTestIndexUseCase(embedding.NewHashEmbedder(16), IndexOptions{})
	st := memstore.NewMemoryStore()
	var swapped *domain.Index

	res, err := uc.Rebuild(context.Background(), root, st, func(ix *domain.Index) { swapped = ix })
	require.NoError(t, err)
	assert.Equal(t, 1, res.SectionsEmbedded)
	require.NotNil(t, swapped)

	saved, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, swapped, saved)
}

func TestRebuild_FailureKeepsPrevious(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# Intro\n\nhello world\n"), 0644))

	uc := newTestIndexUseCase(failingEmbedder{}, IndexOptions{})
	st := memstore.NewMemoryStore()
	called := false

	_, err := uc.Rebuild(context.Background(), root, st, func(*domain.Index) { called = true })
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.False(t, called)
	assert.Nil(t, st.Bytes())
}
