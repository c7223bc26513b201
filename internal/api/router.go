package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-arndt/sandpool/internal/config"
)

type Server struct {
	cfg    *config.Config
	pool   PoolService
	events EventLog
	logger *slog.Logger
	mux    *http.ServeMux
}

func NewServer(cfg *config.Config, p PoolService, events EventLog, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		pool:   p,
		events: events,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.authMiddleware(s.requestIDMiddleware(s.mux))
}

func (s *Server) routes() {
	// Workload lifecycle (with auth)
	s.mux.HandleFunc("POST /v1/workloads", s.handleRequestWorkload)
	s.mux.HandleFunc("POST /v1/workloads/{id}/stop", s.handleStopWorkload)
	s.mux.HandleFunc("DELETE /v1/workloads/{id}", s.handleRemoveWorkload)

	// Per-sandbox operations (with auth)
	s.mux.HandleFunc("POST /v1/workloads/{id}/exec", s.handleExec)
	s.mux.HandleFunc("PUT /v1/workloads/{id}/env", s.handleSetEnv)
	s.mux.HandleFunc("GET /v1/workloads/{id}/logs", s.handleLogs)
	s.mux.HandleFunc("GET /v1/workloads/{id}/stats", s.handleStats)

	// Observability (with auth)
	s.mux.HandleFunc("GET /v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /v1/events", s.handleEvents)

	// Health check and metrics scrape (no auth)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
