package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const defaultLeaderboardLimit = 10

// handleGetLeaderboard handles GET /leaderboard?limit=N.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer, got %q", raw)))
			return
		}
		n = v
	}
	if n > s.maxLimit {
		s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit %d exceeds maximum %d", n, s.maxLimit)))
		return
	}

	entries, err := s.deps.Leaderboard(r.Context(), n)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
