// Package api exposes the share lifecycle operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bladeshare/bladeshare/internal/config"
	"github.com/bladeshare/bladeshare/internal/metrics"
	"github.com/bladeshare/bladeshare/pkg/errors"
	"github.com/bladeshare/bladeshare/pkg/health"
	"github.com/bladeshare/bladeshare/pkg/types"
)

// Server serves the /v1 share API plus health and metrics endpoints.
type Server struct {
	httpServer *http.Server
	driver     types.ShareDriver
	tracker    *health.Tracker
	collector  *metrics.Collector
	logger     *slog.Logger
}

// NewServer wires the routes and builds the HTTP server. The server does
// not listen until Start is called.
func NewServer(cfg config.APIConfig, driver types.ShareDriver, tracker *health.Tracker, collector *metrics.Collector, logger *slog.Logger) *Server {
	s := &Server{
		driver:    driver,
		tracker:   tracker,
		collector: collector,
		logger:    logger.With("component", "api"),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/shares", s.handleCreateShare)
	mux.HandleFunc("GET /v1/shares/{id}", s.handleGetShare)
	mux.HandleFunc("DELETE /v1/shares/{id}", s.handleDeleteShare)
	mux.HandleFunc("POST /v1/shares/{id}/resize", s.handleResizeShare)
	mux.HandleFunc("PUT /v1/shares/{id}/access", s.handleUpdateAccess)
	mux.HandleFunc("POST /v1/shares/{id}/snapshots", s.handleCreateSnapshot)
	mux.HandleFunc("DELETE /v1/shares/{id}/snapshots/{snapshot}", s.handleDeleteSnapshot)
	mux.HandleFunc("POST /v1/shares/{id}/snapshots/{snapshot}/revert", s.handleRevertSnapshot)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/live", s.handleLiveness)
	mux.HandleFunc("GET /health/ready", s.handleReadiness)
	mux.Handle("GET /metrics", collector.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.loggingMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "address", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Share handlers

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string `json:"id"`
		SizeBytes int64  `json:"size_bytes"`
		Protocol  string `json:"protocol"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	protocol, err := types.ParseProtocol(req.Protocol)
	if err != nil {
		s.respondError(w, errors.NewError(errors.ErrCodeUnsupported, err.Error()))
		return
	}

	handle, err := s.driver.CreateShare(r.Context(), types.ShareSpec{
		ID:        req.ID,
		SizeBytes: req.SizeBytes,
		Protocol:  protocol,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, handle)
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	handle := types.ShareHandle{ID: r.PathValue("id")}
	if err := s.driver.EnsureShare(r.Context(), handle); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"id":     handle.ID,
		"status": "available",
	})
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	handle := types.ShareHandle{ID: r.PathValue("id")}
	if err := s.driver.DeleteShare(r.Context(), handle); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResizeShare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SizeBytes int64 `json:"size_bytes"`
		Shrink    bool  `json:"shrink"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	handle := types.ShareHandle{ID: r.PathValue("id")}
	var err error
	if req.Shrink {
		err = s.driver.ShrinkShare(r.Context(), handle, req.SizeBytes)
	} else {
		err = s.driver.ExtendShare(r.Context(), handle, req.SizeBytes)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"size_bytes": req.SizeBytes})
}

func (s *Server) handleUpdateAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Protocol string             `json:"protocol"`
		Rules    []types.AccessRule `json:"rules"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	protocol, err := types.ParseProtocol(req.Protocol)
	if err != nil {
		s.respondError(w, errors.NewError(errors.ErrCodeUnsupported, err.Error()))
		return
	}

	handle := types.ShareHandle{ID: r.PathValue("id"), Protocol: protocol}
	outcomes, err := s.driver.UpdateAccess(r.Context(), handle, req.Rules)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"rules": outcomes})
}

// Snapshot handlers

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	handle := types.ShareHandle{ID: r.PathValue("id")}
	snapshot, err := s.driver.CreateSnapshot(r.Context(), handle, types.SnapshotSpec{ID: req.ID})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, snapshot)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := types.SnapshotHandle{
		ShareID: r.PathValue("id"),
		ID:      r.PathValue("snapshot"),
	}
	if err := s.driver.DeleteSnapshot(r.Context(), snapshot); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevertSnapshot(w http.ResponseWriter, r *http.Request) {
	handle := types.ShareHandle{ID: r.PathValue("id")}
	snapshot := types.SnapshotHandle{
		ShareID: r.PathValue("id"),
		ID:      r.PathValue("snapshot"),
	}
	if err := s.driver.RevertToSnapshot(r.Context(), handle, snapshot); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reverted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.driver.Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.tracker.Overall()

	statusCode := http.StatusOK
	if report.State == health.StateUnavailable {
		statusCode = http.StatusServiceUnavailable
	}
	s.respondJSON(w, statusCode, report)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	report := s.tracker.Overall()
	ready := report.State != health.StateUnavailable

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	s.respondJSON(w, statusCode, map[string]any{
		"ready": ready,
		"state": report.State,
	})
}

// Middleware and helpers

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, errors.Newf(errors.ErrCodeInvalidState, "invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

// respondError maps a driver error onto the wire: the taxonomy code picks
// the HTTP status and the body tells the caller whether a retry is useful.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, errors.HTTPStatusOf(err), map[string]any{
		"code":      errors.CodeOf(err),
		"message":   err.Error(),
		"retryable": errors.IsRetryable(err),
	})
}
