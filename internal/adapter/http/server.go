// Package http serves the operational endpoints of the long-running process:
// liveness, readiness, the last invocation outcome and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/forecast-ingest/internal/pipeline"
)

// ReadinessChecker reports whether a forecast has been stored yet.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// OutcomeReporter exposes the most recent invocation result.
type OutcomeReporter interface {
	LastOutcome() (pipeline.Outcome, bool)
}

// Server exposes /healthz, /readyz, /status and /metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	gatherer prometheus.Gatherer
}

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *serverOptions) {
		o.gatherer = g
	}
}

// NewServer creates the operational HTTP server. The ingestor normally
// satisfies both ready and outcomes.
func NewServer(addr string, ready ReadinessChecker, outcomes OutcomeReporter, logger *slog.Logger, opts ...Option) *Server {
	o := serverOptions{gatherer: prometheus.DefaultGatherer}
	for _, opt := range opts {
		opt(&o)
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /status", handleStatus(outcomes))
	mux.Handle("GET /metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
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

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// statusResponse is the /status body.
type statusResponse struct {
	Status     string     `json:"status"`
	RecordID   string     `json:"record_id,omitempty"`
	Stage      string     `json:"stage,omitempty"`
	Error      string     `json:"error,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`
}

func handleStatus(reporter OutcomeReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		outcome, ok := reporter.LastOutcome()
		if !ok {
			writeJSON(w, http.StatusOK, statusResponse{Status: "pending"})
			return
		}

		resp := statusResponse{
			Status:     "succeeded",
			RecordID:   outcome.RecordID,
			Stage:      string(outcome.Stage),
			Error:      outcome.Error,
			FinishedAt: &outcome.FinishedAt,
			DurationMS: outcome.Duration.Milliseconds(),
		}
		if !outcome.Succeeded {
			resp.Status = "failed"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
