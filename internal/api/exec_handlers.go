package api

import (
	"net/http"

	"github.com/p-arndt/sandpool/internal/docker"
)

type execRequest struct {
	Cmd    []string `json:"cmd"`
	Cwd    string   `json:"cwd"`
	Detach bool     `json:"detach"`
}

type execResponse struct {
	Output string `json:"output"`
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateWorkloadID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	var req execRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeValidationError(w, "invalid json: "+err.Error(), nil)
		return
	}
	if err := validateExecRequest(req); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	s.logger.Debug("exec request", "workload_id", id, "cmd", req.Cmd[0], "detach", req.Detach)
	output, err := s.pool.Exec(r.Context(), id, req.Cmd, docker.ExecOpts{
		WorkingDir: req.Cwd,
		Detach:     req.Detach,
	})
	if err != nil {
		s.logger.Error("exec", "workload_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, execResponse{Output: output})
}

type setEnvRequest struct {
	Env map[string]string `json:"env"`
}

func (s *Server) handleSetEnv(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateWorkloadID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	var req setEnvRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeValidationError(w, "invalid json: "+err.Error(), nil)
		return
	}
	if len(req.Env) == 0 {
		writeValidationError(w, "env is required", nil)
		return
	}

	s.logger.Debug("set env", "workload_id", id, "keys", len(req.Env))
	if err := s.pool.SetEnv(r.Context(), id, req.Env); err != nil {
		s.logger.Error("set env", "workload_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type logsResponse struct {
	Logs string `json:"logs"`
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateWorkloadID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	tail := r.URL.Query().Get("tail")
	if tail == "" {
		tail = "100"
	}
	if err := validateTail(tail); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	logs, err := s.pool.Logs(r.Context(), id, docker.LogsOpts{
		Stdout: true,
		Stderr: true,
		Tail:   tail,
	})
	if err != nil {
		s.logger.Error("logs", "workload_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logsResponse{Logs: logs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateWorkloadID(id); err != nil {
		writeValidationError(w, err.Error(), nil)
		return
	}

	stats, err := s.pool.Stats(r.Context(), id)
	if err != nil {
		s.logger.Error("stats", "workload_id", id, "error", err)
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
