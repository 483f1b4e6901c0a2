package embedding

import (
	"context"
	"sync"

	"semsearch/internal/port"
)

// Serial allows at most one in-flight Embed call on the wrapped embedder.
type Serial struct {
	mu    sync.Mutex
	inner port.Embedder
}

func NewSerial(inner port.Embedder) *Serial {
	return &Serial{inner: inner}
}

// Guard returns e unchanged if it declares itself reentrant, otherwise it
// wraps e in a Serial.
func Guard(e port.Embedder) port.Embedder {
	if r, ok := e.(port.Reentrant); ok && r.Reentrant() {
		return e
	}
	if s, ok := e.(*Serial); ok {
		return s
	}
	return NewSerial(e)
}

func (s *Serial) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, texts)
}

func (s *Serial) Dimension() int {
	return s.inner.Dimension()
}

func (s *Serial) ModelName() string {
	return s.inner.ModelName()
}
