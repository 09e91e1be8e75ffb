// Package api exposes the discovery pipeline over HTTP.
//
// The service carries a single operation, POST /v1/search, which accepts
// pipeline options (skeleton, truth graph, algorithm, formats) and
// responds with the finished PAG plus any rendered artifacts. A GET
// /health endpoint reports liveness.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	pagerrors "github.com/matzehuels/pagsearch/pkg/errors"
	"github.com/matzehuels/pagsearch/pkg/graphio"
	"github.com/matzehuels/pagsearch/pkg/pipeline"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps a chi router around a pipeline runner.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	logger *log.Logger
	cfg    Config
}

// New creates a Server with chi router, health endpoint, and the search
// route bound to the given runner.
func New(cfg Config, runner *pipeline.Runner, logger *log.Logger) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 120 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		runner: runner,
		logger: logger,
		cfg:    cfg,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
	})

	s.router = r
	return s, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("api listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// =============================================================================
// Handlers
// =============================================================================

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	RunID     string            `json:"run_id"`
	GraphHash string            `json:"graph_hash"`
	Graph     graphio.Graph     `json:"graph"`
	Trace     []TraceEntry      `json:"trace,omitempty"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
	Stats     SearchStats       `json:"stats"`
	Cached    bool              `json:"cached"`
}

// TraceEntry is one orientation rule application.
type TraceEntry struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// SearchStats summarizes a run for API consumers.
type SearchStats struct {
	NodeCount    int    `json:"node_count"`
	EdgeCount    int    `json:"edge_count"`
	SearchTimeMS int64  `json:"search_time_ms"`
	RenderTimeMS int64  `json:"render_time_ms"`
	Algorithm    string `json:"algorithm"`
}

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	opts.Logger = s.logger

	// Validate here so the response reflects the defaulted options
	// (Execute receives a copy and validation is idempotent).
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := SearchResponse{
		RunID:     result.RunID,
		GraphHash: result.GraphHash,
		Graph:     graphio.FromGraph(result.Graph),
		Artifacts: result.Artifacts,
		Cached:    result.CacheInfo.SearchHit,
		Stats: SearchStats{
			NodeCount:    result.Stats.NodeCount,
			EdgeCount:    result.Stats.EdgeCount,
			SearchTimeMS: result.Stats.SearchTime.Milliseconds(),
			RenderTimeMS: result.Stats.RenderTime.Milliseconds(),
			Algorithm:    opts.Algorithm,
		},
	}
	for _, app := range result.Trace {
		resp.Trace = append(resp.Trace, TraceEntry{Rule: app.Rule, Detail: app.Detail})
	}

	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps pipeline error codes onto HTTP status codes.
func statusFor(err error) int {
	switch pagerrors.GetCode(err) {
	case pagerrors.ErrCodeInvalidInput,
		pagerrors.ErrCodeInvalidDepth,
		pagerrors.ErrCodeInvalidPathLength,
		pagerrors.ErrCodeInvalidAlgorithm,
		pagerrors.ErrCodeInvalidFormat,
		pagerrors.ErrCodeInvalidGraph,
		pagerrors.ErrCodeUnsupportedData:
		return http.StatusBadRequest
	case pagerrors.ErrCodeNotFound, pagerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if code := pagerrors.GetCode(err); code != "" {
		resp.Code = string(code)
	}
	writeJSON(w, status, resp)
}
