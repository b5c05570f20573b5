// Package service wires the scoring components together and implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/hydroskill/internal/adapters/mq/queue"
	"github.com/okian/hydroskill/internal/adapters/mq/worker"
	"github.com/okian/hydroskill/internal/adapters/repository"
	"github.com/okian/hydroskill/internal/domain/dedupe"
	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/internal/domain/skill"
	"github.com/okian/hydroskill/internal/domain/types"
	"github.com/okian/hydroskill/pkg/logger"
	"github.com/okian/hydroskill/pkg/metrics"
)

// Service scores prediction series synchronously and through a queue of
// asynchronous runs, and keeps the model leaderboard.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	board   repository.Leaderboard
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	cancel  context.CancelFunc

	workerCount     int
	queueSize       int
	dedupeSize      int
	maxRuns         int
	maxSeriesLength int
	newID           func() string

	started bool
	logger  logger.Logger
}

// New constructs a Service. The store, leaderboard and deduper exist from
// the start; the queue and workers are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      50_000,
		maxRuns:         10_000,
		maxSeriesLength: 1_000_000,
		newID:           uuid.NewString,
		logger:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.store = repository.NewMemoryStore(repository.WithMaxRuns(s.maxRuns))
	s.board = repository.NewMemoryLeaderboard()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.store, s.board, worker.WithLogger(s.logger))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue, lets the workers drain it and waits for them
// until ctx expires.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping scoring service...")
	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false

	if err != nil {
		s.logger.Warn(ctx, "workers did not drain", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "scoring service stopped")
	return nil
}

// ScoreAll scores every prediction against observed and returns one result
// per prediction in input order. A failure of one series is recorded on that
// series and does not affect the others; only invalid input or a cancelled
// ctx fails the call.
func (s *Service) ScoreAll(ctx context.Context, observed []float64, predictions []model.NamedSeries) ([]model.ScoredSeries, error) {
	if err := s.validate(observed, predictions); err != nil {
		return nil, err
	}

	out := make([]model.ScoredSeries, len(predictions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i, p := range predictions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = scoreOne(observed, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func scoreOne(observed []float64, p model.NamedSeries) model.ScoredSeries {
	start := time.Now()
	res, err := skill.Compute(observed, p.Values)
	took := time.Since(start)

	scored := model.ScoredSeries{Name: p.Name, Result: res, Err: err}
	switch {
	case err != nil:
		scored.Error = err.Error()
		metrics.RecordSeriesScored("failed", took)
		recordFailure(err)
	case !res.Complete():
		metrics.RecordSeriesScored("partial", took)
		for _, stat := range []skill.Statistic{skill.PearsonR, skill.PBIAS} {
			if serr := res.Err(stat); serr != nil {
				recordFailure(serr)
			}
		}
	default:
		metrics.RecordSeriesScored("complete", took)
	}
	return scored
}

func recordFailure(err error) {
	var se *skill.ScoreError
	if !errors.As(err, &se) {
		metrics.RecordScoreFailure("all", "unknown")
		return
	}
	for _, stat := range se.Statistics {
		metrics.RecordScoreFailure(string(stat), KindName(se.Kind))
	}
}

// KindName returns a stable snake_case name for a skill error kind.
func KindName(kind error) string {
	switch {
	case errors.Is(kind, skill.ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(kind, skill.ErrEmptyInput):
		return "empty_input"
	case errors.Is(kind, skill.ErrMissingValue):
		return "missing_value"
	case errors.Is(kind, skill.ErrDegenerateVariance):
		return "degenerate_variance"
	case errors.Is(kind, skill.ErrZeroSum):
		return "zero_sum"
	case errors.Is(kind, skill.ErrNonFinite):
		return "non_finite"
	default:
		return "unknown"
	}
}

// validate rejects requests that cannot be scored as a whole. Problems with
// a single series, such as a length mismatch, are left to skill.Compute.
func (s *Service) validate(observed []float64, predictions []model.NamedSeries) error {
	if len(predictions) == 0 {
		return fmt.Errorf("%w: no prediction series", ErrInvalidInput)
	}
	if len(observed) > s.maxSeriesLength {
		return fmt.Errorf("%w: observed has %d values, limit is %d", ErrInvalidInput, len(observed), s.maxSeriesLength)
	}
	seen := make(map[string]struct{}, len(predictions))
	for i, p := range predictions {
		if p.Name == "" {
			return fmt.Errorf("%w: predictions[%d] has no name", ErrInvalidInput, i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: prediction %q appears twice", ErrInvalidInput, p.Name)
		}
		seen[p.Name] = struct{}{}
		if len(p.Values) > s.maxSeriesLength {
			return fmt.Errorf("%w: %s has %d values, limit is %d", ErrInvalidInput, p.Name, len(p.Values), s.maxSeriesLength)
		}
	}
	return nil
}

// Submit queues a run for asynchronous scoring. An empty runID gets a fresh
// one. Resubmitting a known run id returns the existing run with duplicate
// set and queues nothing. ErrBackpressure means the queue is full and the
// submission may be retried with the same id.
func (s *Service) Submit(ctx context.Context, runID string, observed []float64, predictions []model.NamedSeries) (run model.Run, duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Run{}, false, ErrNotStarted
	}
	if err := s.validate(observed, predictions); err != nil {
		return model.Run{}, false, err
	}
	if runID == "" {
		runID = s.newID()
	}

	if s.deduper.SeenAndRecord(ctx, runID) {
		metrics.RecordRunDuplicate()
		s.logger.Debug(ctx, "duplicate run submission", logger.String("run_id", runID))
		existing, err := s.store.Get(ctx, runID)
		if err != nil {
			return model.Run{ID: runID}, true, nil
		}
		return existing, true, nil
	}

	names := make([]string, len(predictions))
	for i, p := range predictions {
		names[i] = p.Name
	}
	run = model.Run{
		ID:          runID,
		Status:      model.StatusPending,
		Samples:     len(observed),
		Series:      names,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, run); err != nil {
		// the deduper may forget an id the store still holds
		if errors.Is(err, repository.ErrExists) {
			metrics.RecordRunDuplicate()
			existing, gerr := s.store.Get(ctx, runID)
			if gerr != nil {
				return model.Run{ID: runID}, true, nil
			}
			return existing, true, nil
		}
		s.deduper.Unrecord(ctx, runID)
		return model.Run{}, false, fmt.Errorf("store run %s: %w", runID, err)
	}

	job := model.Job{
		RunID:       runID,
		Observed:    append([]float64(nil), observed...),
		Predictions: clonePredictions(predictions),
		SubmittedAt: run.SubmittedAt,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.store.Delete(ctx, runID)
		s.deduper.Unrecord(ctx, runID)
		if errors.Is(err, queue.ErrFull) {
			return model.Run{}, false, fmt.Errorf("%w: run %s", ErrBackpressure, runID)
		}
		return model.Run{}, false, fmt.Errorf("enqueue run %s: %w", runID, err)
	}

	metrics.RecordRunSubmitted()
	s.logger.Debug(ctx, "run queued",
		logger.String("run_id", runID),
		logger.Int("series", len(predictions)),
		logger.Int("samples", len(observed)),
	)
	return run, false, nil
}

func clonePredictions(in []model.NamedSeries) []model.NamedSeries {
	out := make([]model.NamedSeries, len(in))
	for i, p := range in {
		out[i] = model.NamedSeries{Name: p.Name, Values: append([]float64(nil), p.Values...)}
	}
	return out
}

// Run returns a submitted run. Returns repository.ErrNotFound for unknown ids.
func (s *Service) Run(ctx context.Context, id string) (model.Run, error) {
	return s.store.Get(ctx, id)
}

// Leaderboard returns the top n models by best NSE.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	return s.board.TopN(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"worker_count":  s.workerCount,
		"queue_size":    s.queueSize,
		"dedupe_size":   s.dedupeSize,
		"runs":          s.store.Count(ctx),
		"ranked_models": s.board.Count(ctx),
		"remembered":    s.deduper.Size(),
	}
	if s.started {
		stats["queue_length"] = s.queue.Len()
	}
	return stats
}
