package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/config"
	"semsearch/internal/domain"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	first, err := e.Embed(ctx, []string{"install the package"})
	require.NoError(t, err)
	second, err := e.Embed(ctx, []string{"install the package"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first[0], 64)
	assert.InDelta(t, 1.0, math.Sqrt(dot(first[0], first[0])), 1e-6)
}

func TestHashEmbedder_SharedStemsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(384)
	vecs, err := e.Embed(context.Background(), []string{"hello", "hello world", "install the package"})
	require.NoError(t, err)

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestHashEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	vecs, err := NewHashEmbedder(8).Embed(context.Background(), []string{"the a"})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}

func TestMockEmbedder(t *testing.T) {
	vecs, err := NewMockEmbedder(4).Embed(context.Background(), []string{"ab", "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.097, 0.098, 0, 0}, vecs[0])
	assert.Len(t, vecs[1], 4)
}

// countingEmbedder records calls and the peak number of concurrent calls.
type countingEmbedder struct {
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	texts    atomic.Int32
	delay    time.Duration
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	c.texts.Add(int32(len(texts)))
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(c.delay)
	out := make([][]float32, len(texts))
	for i, s := range texts {
		out[i] = []float32{float32(len(s)), 1}
	}
	return out, nil
}

func (c *countingEmbedder) Dimension() int    { return 2 }
func (c *countingEmbedder) ModelName() string { return "counting" }

func TestSerial_OneCallAtATime(t *testing.T) {
	inner := &countingEmbedder{delay: 5 * time.Millisecond}
	s := Guard(inner)
	_, isSerial := s.(*Serial)
	require.True(t, isSerial)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Embed(context.Background(), []string{"x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), inner.calls.Load())
	assert.Equal(t, int32(1), inner.peak.Load())
}

func TestGuard_ReentrantPassesThrough(t *testing.T) {
	e := NewHashEmbedder(8)
	assert.Same(t, e, Guard(e))
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]float32
}

func (c *mapCache) Get(model, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[model+"|"+text]
	return v, ok
}

func (c *mapCache) Put(model, text string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[model+"|"+text] = vec
	return nil
}

func TestCached_ForwardsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	persistent := &mapCache{m: map[string][]float32{"counting|warm": {9, 9}}}
	c := NewCached(inner, 16, persistent)
	ctx := context.Background()

	vecs, err := c.Embed(ctx, []string{"a", "warm", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {9, 9}, {2, 1}}, vecs)
	assert.Equal(t, int32(2), inner.texts.Load())

	vecs, err = c.Embed(ctx, []string{"bb", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1}, {1, 1}}, vecs)
	assert.Equal(t, int32(1), inner.calls.Load())

	_, ok := persistent.Get("counting", "bb")
	assert.True(t, ok)
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embeddingResponse{}
		// answer out of order to exercise index placement
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	t.Setenv("TEST_EMBED_KEY", "secret")
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "text-embedding-3-small", OpenAIOptions{
		BaseURL:   srv.URL,
		BatchSize: 2,
	})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {0, 1}}, vecs)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, 1536, e.Dimension())
}

func TestOpenAIEmbedder_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder("all-minilm", OpenAIOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())

	_, err = e.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "status 503")
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY_MISSING", "")
	_, err := NewOpenAIEmbedder("TEST_EMBED_KEY_MISSING", "text-embedding-3-small", OpenAIOptions{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig().Embedding

	e, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "hash-bow-v1", e.ModelName())
	assert.Equal(t, 384, e.Dimension())

	cfg.Provider = "mock"
	cfg.Dimension = 3
	e, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", e.ModelName())

	cfg.Provider = "word2vec"
	_, err = New(cfg)
	assert.ErrorContains(t, err, "unsupported embedding provider")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
