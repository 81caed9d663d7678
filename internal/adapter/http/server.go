// Package http exposes an optional observability listener for the batch run.
// The job is one-shot, but runs against the full dataset take a while; the
// listener lets an operator scrape the per-stage counters mid-run, and read
// the finished accounting back from /summary until the process exits.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/dog-bite-report/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const statusTimeout = 2 * time.Second

// RunStatus reports whether the pipeline has produced a final collection and,
// once it has, the per-stage record accounting of that run.
type RunStatus interface {
	CheckReadiness(ctx context.Context) error
	LastSummary() (pipeline.Summary, bool)
}

// Server exposes health, run-status, summary, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	run        RunStatus
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /summary, and
// /metrics routes.
func NewServer(addr string, run RunStatus, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		run:    run,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleRunStatus)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("metrics listener starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleRunStatus answers 200 once the run has a final collection, 503 while
// the pipeline is still working.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	if err := s.run.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "running",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "complete"})
}

// handleSummary serves the per-stage record accounting of the completed run.
// 503 until the run finishes; after that the counts are final.
func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	sum, ok := s.run.LastSummary()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "running"})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
