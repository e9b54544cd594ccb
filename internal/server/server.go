// Package server exposes the navigation operations over JSON/HTTP for
// editor integrations that keep a daemon running.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phpnav/internal/core/app"
	"phpnav/internal/engine/scanner"
	"phpnav/internal/shared/observability"
	"phpnav/internal/shared/util"
)

type Server struct {
	addr     string
	app      *app.App
	svc      *app.NavigationService
	limiters *util.LimiterRegistry
	server   *http.Server
	ln       net.Listener
}

type positionRequest struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func New(addr string, a *app.App) *Server {
	return &Server{
		addr:     addr,
		app:      a,
		svc:      a.NavigationService(),
		limiters: util.NewLimiterRegistry(a.Config.Server.RateLimit, a.Config.Server.RateBurst, 10*time.Minute),
	}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("POST /resolve", s.handleResolve)
	mux.HandleFunc("POST /references", s.handleReferences)
	mux.HandleFunc("POST /completions", s.handleCompletions)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:           s.instrument(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("daemon listening", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("daemon failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// instrument assigns a request id, enforces a per-client rate limit, and
// records the request duration per route and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		if r.URL.Path != "/metrics" && r.URL.Path != "/health" && !s.limiters.Get(clientKey(r)).Allow(1) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", requestID)
			observability.HTTPRequestDuration.WithLabelValues(r.URL.Path, "429").Observe(0)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.HTTPRequestDuration.
			WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.app.Health()
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", requestID(w))
			return
		}
		limit = n
	}
	records, err := s.svc.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load history: "+err.Error(), requestID(w))
		return
	}
	writeJSON(w, map[string]any{"records": records})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePosition(w, r)
	if !ok {
		return
	}
	result := s.svc.Definition(r.Context(), req.File, scanner.Location{Line: req.Line, Column: req.Column})
	writeJSON(w, result)
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePosition(w, r)
	if !ok {
		return
	}
	refs := s.svc.References(r.Context(), req.File, scanner.Location{Line: req.Line, Column: req.Column})
	writeJSON(w, map[string]any{"references": refs})
}

func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePosition(w, r)
	if !ok {
		return
	}
	items := s.svc.Completions(r.Context(), req.File, scanner.Location{Line: req.Line, Column: req.Column})
	writeJSON(w, map[string]any{"items": items})
}

func decodePosition(w http.ResponseWriter, r *http.Request) (positionRequest, bool) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), requestID(w))
		return req, false
	}
	if req.File == "" {
		writeError(w, http.StatusBadRequest, "file is required", requestID(w))
		return req, false
	}
	if req.Line < 1 || req.Column < 1 {
		writeError(w, http.StatusBadRequest, "line and column are 1-based", requestID(w))
		return req, false
	}
	return req, true
}

func requestID(w http.ResponseWriter) string {
	return w.Header().Get("X-Request-Id")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, RequestID: requestID})
}
