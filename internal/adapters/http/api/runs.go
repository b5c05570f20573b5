package api

import (
	"net/http"
	"strings"

	"github.com/okian/hydroskill/internal/domain/model"
)

type submitResponse struct {
	RunID     string       `json:"run_id"`
	Status    model.Status `json:"status"`
	Duplicate bool         `json:"duplicate,omitempty"`
}

// handleSubmitRun handles POST /runs.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_run"
	var req scoreRequest
	if err := s.decode(w, r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	runID := strings.TrimSpace(req.RunID)

	run, duplicate, err := s.deps.Submit(r.Context(), runID, req.Observed, req.named())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	status := http.StatusAccepted
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, submitResponse{RunID: run.ID, Status: run.Status, Duplicate: duplicate})
}

// handleGetRun handles GET /runs/{id}.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	run, err := s.deps.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}
