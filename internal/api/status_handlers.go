package api

import (
	"net/http"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.pool.Status(r.Context())
	if err != nil {
		s.logger.Error("status", "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), 50, 500)
	if err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	entries, err := s.events.Recent(limit)
	if err != nil {
		s.logger.Error("events", "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
