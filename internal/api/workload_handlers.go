package api

import (
	"net/http"
	"time"
)

type requestWorkloadRequest struct {
	WorkloadID string            `json:"workload_id"`
	Config     map[string]string `json:"config"`
}

type workloadResponse struct {
	WorkloadID string    `json:"workload_id"`
	SandboxID  string    `json:"sandbox_id"`
	StartedAt  time.Time `json:"started_at"`
}

func (s *Server) handleRequestWorkload(w http.ResponseWriter, r *http.Request) {
	var req requestWorkloadRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeValidationError(w, "invalid json: "+err.Error(), nil)
		return
	}

	if err := ValidateWorkloadID(req.WorkloadID); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	s.logger.Debug("workload request", "workload_id", req.WorkloadID)
	h, err := s.pool.Request(r.Context(), req.WorkloadID, req.Config)
	if err != nil {
		s.logger.Error("request workload", "workload_id", req.WorkloadID, "error", err)
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, workloadResponse{
		WorkloadID: h.WorkloadID(),
		SandboxID:  h.SandboxID(),
		StartedAt:  h.StartedAt(),
	})
}

func (s *Server) handleStopWorkload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateWorkloadID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	s.logger.Debug("stop workload", "workload_id", id)
	if err := s.pool.Stop(r.Context(), id); err != nil {
		s.logger.Error("stop workload", "workload_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRemoveWorkload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateWorkloadID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	s.logger.Debug("remove workload", "workload_id", id)
	if err := s.pool.Remove(r.Context(), id); err != nil {
		s.logger.Error("remove workload", "workload_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
