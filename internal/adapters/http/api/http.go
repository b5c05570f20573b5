// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/okian/hydroskill/internal/adapters/repository"
	service "github.com/okian/hydroskill/internal/app"
	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/internal/domain/types"
	"github.com/okian/hydroskill/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	ScoreAll(ctx context.Context, observed []float64, predictions []model.NamedSeries) ([]model.ScoredSeries, error)
	Submit(ctx context.Context, runID string, observed []float64, predictions []model.NamedSeries) (model.Run, bool, error)
	Run(ctx context.Context, id string) (model.Run, error)
	Leaderboard(ctx context.Context, n int) ([]Entry, error)
	GetStats() map[string]any
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	maxLimit     int
	maxBodyBytes int64
	log          logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		maxLimit:     defaultMaxLeaderboardLimit,
		maxBodyBytes: defaultMaxBodyBytes,
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /score", MetricsMiddleware(s.handleScore, "score"))
	mux.HandleFunc("POST /runs", MetricsMiddleware(s.handleSubmitRun, "runs"))
	mux.HandleFunc("GET /runs/{id}", MetricsMiddleware(s.handleGetRun, "run"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.handleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(handleHealth, "healthz"))
}

// values decodes a JSON number array in which null marks a missing sample.
type values []float64

func (v *values) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]float64, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*v = out
	return nil
}

type seriesRequest struct {
	Name   string `json:"name"`
	Values values `json:"values"`
}

// scoreRequest mirrors the OpenAPI schema shared by POST /score and POST /runs.
type scoreRequest struct {
	RunID       string          `json:"run_id,omitempty"`
	Observed    values          `json:"observed"`
	Predictions []seriesRequest `json:"predictions"`
}

func (r scoreRequest) named() []model.NamedSeries {
	out := make([]model.NamedSeries, len(r.Predictions))
	for i, p := range r.Predictions {
		out[i] = model.NamedSeries{Name: p.Name, Values: p.Values}
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrTooLarge, err)
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an error to a status code and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
