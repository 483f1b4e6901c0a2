package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"semsearch/internal/domain"
	"semsearch/internal/port"
)

// Status describes the outcome of the latest query in a session.
type Status int

const (
	StatusOK Status = iota
	// StatusUnavailable means the provider could not embed the query.
	StatusUnavailable
)

func (s Status) String() string {
	if s == StatusUnavailable {
		return "unavailable"
	}
	return "ok"
}

// SearchSession serves one stream of queries, such as a search box that
// re-queries on every keystroke. Only the most recently issued query may be
// rendered; earlier in-flight queries are cancelled and their results dropped.
type SearchSession struct {
	retriever port.Retriever
	topK      int

	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// NewSearchSession creates a session over r returning at most topK results.
func NewSearchSession(r port.Retriever, topK int) *SearchSession {
	return &SearchSession{retriever: r, topK: topK}
}

// Begin issues a token for a new query and cancels the previous one.
func (s *SearchSession) Begin(parent context.Context) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.latest++
	return s.latest, ctx
}

// Finish reports whether the outcome for token should be rendered, and with
// which status. Results of superseded tokens are never rendered.
func (s *SearchSession) Finish(token uint64, err error) (bool, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.latest {
		return false, StatusOK
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false, StatusOK
		}
		return true, StatusUnavailable
	}
	return true, StatusOK
}

// SearchResult is what a presenter renders for one query.
type SearchResult struct {
	Token   uint64
	Query   string
	Status  Status
	Results []domain.RankedResult
	Err     error
}

// Search runs query under a fresh token. Stale reports whether a newer query
// superseded this one, in which case nothing should be rendered.
func (s *SearchSession) Search(parent context.Context, query string) (res SearchResult, stale bool) {
	return s.SearchK(parent, query, 0)
}

// SearchK is Search with a per-query result count; k <= 0 uses the session default.
func (s *SearchSession) SearchK(parent context.Context, query string, k int) (res SearchResult, stale bool) {
	token, ctx := s.Begin(parent)
	return s.Run(ctx, token, query, k)
}

// Run executes query under a token already issued by Begin. Presenters that
// dispatch work asynchronously call Begin on their event loop so tokens follow
// input order, then Run from the worker.
func (s *SearchSession) Run(ctx context.Context, token uint64, query string, k int) (res SearchResult, stale bool) {
	if k <= 0 {
		k = s.topK
	}
	results, err := s.retriever.Search(ctx, query, k)

	render, status := s.Finish(token, err)
	if !render {
		return SearchResult{Token: token, Query: query}, true
	}

	res = SearchResult{Token: token, Query: query, Status: status, Results: results}
	if status == StatusUnavailable {
		slog.Warn("search_unavailable", slog.String("query", query), slog.String("error", err.Error()))
		res.Results = []domain.RankedResult{}
		res.Err = err
	}
	if res.Results == nil {
		res.Results = []domain.RankedResult{}
	}
	return res, false
}

// Close cancels any in-flight query.
func (s *SearchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
