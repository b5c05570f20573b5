// Package worker scores queued runs and persists their results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/pkg/logger"
	"github.com/okian/hydroskill/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// ErrStopped is returned by Shutdown when workers did not drain in time.
var ErrStopped = errors.New("worker stopped before draining")

// Job abstracts what workers read off the queue.
type Job = model.Job

// Scorer scores every prediction of a job against its observations.
type Scorer interface {
	ScoreAll(ctx context.Context, observed []float64, predictions []model.NamedSeries) ([]model.ScoredSeries, error)
}

// Recorder persists the outcome of a run.
type Recorder interface {
	Complete(ctx context.Context, id string, results []model.ScoredSeries, at time.Time) error
	Fail(ctx context.Context, id string, reason string, at time.Time) error
}

// Ranker offers scored models to the leaderboard.
type Ranker interface {
	Offer(ctx context.Context, modelName, runID string, nse, rmse float64) (bool, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan Job
}

// Worker processes jobs until its queue is closed.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	scorer   Scorer
	recorder Recorder
	ranker   Ranker
	name     string

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, recorder Recorder, ranker Ranker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		recorder: recorder,
		ranker:   ranker,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing run", logger.String("run_id", job.RunID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process scores one job, offers every scored series to the leaderboard and
// then marks the run done, so a done run is always visible on the board.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is received by value from the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(time.Since(start))
	}()

	results, err := w.scorer.ScoreAll(ctx, job.Observed, job.Predictions)
	if err != nil {
		metrics.RecordRunCompleted(string(model.StatusFailed))
		metrics.RecordErrorByComponent("worker", "scoring_error")
		if ferr := w.recorder.Fail(ctx, job.RunID, err.Error(), time.Now().UTC()); ferr != nil {
			return fmt.Errorf("record failure of run %s: %w", job.RunID, ferr)
		}
		return fmt.Errorf("score run %s: %w", job.RunID, err)
	}

	for _, res := range results {
		if !res.OK() {
			continue
		}
		if _, err := w.ranker.Offer(ctx, res.Name, job.RunID, res.Result.NSE, res.Result.RMSE); err != nil {
			metrics.RecordErrorByComponent("worker", "leaderboard_error")
			w.logger.Warn(ctx, "leaderboard update failed",
				logger.String("run_id", job.RunID),
				logger.String("model", res.Name),
				logger.Error(err),
			)
		}
	}

	if err := w.recorder.Complete(ctx, job.RunID, results, time.Now().UTC()); err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store run %s: %w", job.RunID, err)
	}
	metrics.RecordRunCompleted(string(model.StatusDone))

	w.logger.Debug(ctx, "run scored",
		logger.String("run_id", job.RunID),
		logger.Int("series", len(results)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers consuming the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A count below one uses runtime.NumCPU().
func NewPool(count int, q Queue, scorer Scorer, recorder Recorder, ranker Ranker, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   q,
		logger:  poolLogger(opts),
	}
	for i := 0; i < count; i++ {
		workerOpts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, scorer, recorder, ranker, workerOpts...)
	}
	return pool
}

func poolLogger(opts []Option) logger.Logger {
	w := &InMemoryWorker{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w.logger.Named("worker-pool")
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Stop signals every worker to return after its current job, without
// draining the queue.
func (p *Pool) Stop(ctx context.Context) error {
	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.UpdateWorkerCount(0)
	return errors.Join(errs...)
}

// Shutdown closes the queue and waits for the workers to drain it. Returns
// ErrStopped if ctx expires or the drain exceeds the pool timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	defer metrics.UpdateWorkerCount(0)
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return ErrStopped
		}
	}
	return nil
}
