package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/pkg/metrics"
)

const defaultMaxRuns = 10_000

// MemoryStore is an in-memory Store. Runs are evicted oldest first once
// maxRuns is reached.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*model.Run
	order   []string
	maxRuns int
}

// NewMemoryStore constructs a run store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		runs:    make(map[string]*model.Run),
		maxRuns: defaultMaxRuns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, run model.Run) error {
	if run.ID == "" {
		return fmt.Errorf("%w: empty run id", ErrInvalidEntry)
	}

	s.mu.Lock()
	if _, ok := s.runs[run.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrExists, run.ID)
	}
	if s.maxRuns > 0 && len(s.order) >= s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
	r := cloneRun(run)
	s.runs[run.ID] = &r
	s.order = append(s.order, run.ID)
	count := len(s.runs)
	s.mu.Unlock()

	metrics.UpdateRunsStored(count)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneRun(*r), nil
}

// Complete implements Store.Complete.
func (s *MemoryStore) Complete(_ context.Context, id string, results []model.ScoredSeries, at time.Time) error {
	return s.finish(id, func(r *model.Run) {
		r.Status = model.StatusDone
		r.Results = append([]model.ScoredSeries(nil), results...)
		r.CompletedAt = &at
	})
}

// Fail implements Store.Fail.
func (s *MemoryStore) Fail(_ context.Context, id string, reason string, at time.Time) error {
	return s.finish(id, func(r *model.Run) {
		r.Status = model.StatusFailed
		r.Error = reason
		r.CompletedAt = &at
	})
}

func (s *MemoryStore) finish(id string, apply func(*model.Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	apply(r)
	return nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	if _, ok := s.runs[id]; ok {
		delete(s.runs, id)
		s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	}
	count := len(s.runs)
	s.mu.Unlock()

	metrics.UpdateRunsStored(count)
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func cloneRun(r model.Run) model.Run {
	r.Series = append([]string(nil), r.Series...)
	if r.Results != nil {
		r.Results = append([]model.ScoredSeries(nil), r.Results...)
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		r.CompletedAt = &at
	}
	return r
}
