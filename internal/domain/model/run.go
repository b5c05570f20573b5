// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"time"

	"github.com/okian/hydroskill/internal/domain/skill"
)

// Status is the lifecycle state of an asynchronous scoring run.
type Status string

// Run states.
const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// NamedSeries is one prediction series submitted for scoring.
type NamedSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ScoredSeries is the outcome of scoring one prediction series. Err is set
// when the whole result failed; scoped failures live inside Result.
type ScoredSeries struct {
	Name   string       `json:"name"`
	Result skill.Result `json:"scores"`
	Error  string       `json:"error,omitempty"`
	Err    error        `json:"-"`
}

// OK reports whether the series was scored.
func (s ScoredSeries) OK() bool { return s.Err == nil && s.Error == "" }

// MarshalJSON omits the scores of a series that failed as a whole.
func (s ScoredSeries) MarshalJSON() ([]byte, error) {
	out := struct {
		Name   string        `json:"name"`
		Result *skill.Result `json:"scores,omitempty"`
		Error  string        `json:"error,omitempty"`
	}{Name: s.Name, Error: s.Error}
	if s.OK() {
		out.Result = &s.Result
	} else if out.Error == "" {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

// Job is the unit of work flowing through the queue.
type Job struct {
	RunID       string
	Observed    []float64
	Predictions []NamedSeries
	SubmittedAt time.Time
}

// Run is a submitted scoring request and, once processed, its results.
type Run struct {
	ID          string         `json:"run_id"`
	Status      Status         `json:"status"`
	Samples     int            `json:"samples"`
	Series      []string       `json:"series"`
	Results     []ScoredSeries `json:"results,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
