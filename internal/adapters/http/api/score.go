package api

import (
	"net/http"

	"github.com/okian/hydroskill/internal/domain/model"
)

type scoreResponse struct {
	Results []model.ScoredSeries `json:"results"`
}

// handleScore handles POST /score. Whole-request problems are 400; a body
// whose every series failed to score is 422 and still carries the results.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req scoreRequest
	if err := s.decode(w, r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.RunID != "" {
		s.fail(w, r, NewKind(op, ErrBadRequest))
		return
	}

	results, err := s.deps.ScoreAll(r.Context(), req.Observed, req.named())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	status := http.StatusUnprocessableEntity
	for _, res := range results {
		if res.OK() {
			status = http.StatusOK
			break
		}
	}
	writeJSON(w, status, scoreResponse{Results: results})
}
