// Package server exposes the query engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"semsearch/internal/domain"
	"semsearch/internal/port"
	"semsearch/internal/usecase"
)

// IndexSource reports the index currently being served.
type IndexSource interface {
	Index() *domain.Index
}

// Server answers search requests against a retriever.
type Server struct {
	retriever port.Retriever
	index     IndexSource
	topK      int
	logger    *slog.Logger
}

func New(r port.Retriever, index IndexSource, topK int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{retriever: r, index: index, topK: topK, logger: logger}
}

// SearchResponse is the JSON body of GET /api/search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Status  string                `json:"status"`
	Results []domain.RankedResult `json:"results"`
	Error   string                `json:"error,omitempty"`
}

// HealthResponse is the JSON body of GET /healthz.
type HealthResponse struct {
	Status           string `json:"status"`
	Shape            string `json:"shape"`
	Documents        int    `json:"documents"`
	EmbeddedSections int    `json:"embeddedSections"`
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.handleSearch)

	return Chain(mux,
		Recover(s.logger),
		Logger(s.logger),
		OTel("semsearch"),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.index != nil {
		ix := s.index.Index()
		stats := ix.Stats()
		resp.Shape = ix.Shape.String()
		resp.Documents = stats.Documents
		resp.EmbeddedSections = stats.EmbeddedSections
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	k := s.topK
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, SearchResponse{
				Query:   query,
				Status:  usecase.StatusOK.String(),
				Results: []domain.RankedResult{},
				Error:   "k must be a positive integer",
			})
			return
		}
		k = n
	}

	results, err := s.retriever.Search(r.Context(), query, k)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("search_unavailable", slog.String("query", query), slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, SearchResponse{
			Query:   query,
			Status:  usecase.StatusUnavailable.String(),
			Results: []domain.RankedResult{},
			Error:   "search is temporarily unavailable",
		})
		return
	}
	if results == nil {
		results = []domain.RankedResult{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Status:  usecase.StatusOK.String(),
		Results: results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Run serves addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
