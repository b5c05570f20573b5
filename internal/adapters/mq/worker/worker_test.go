package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/hydroskill/internal/adapters/mq/queue"
	repository "github.com/okian/hydroskill/internal/adapters/repository"
	worker "github.com/okian/hydroskill/internal/adapters/mq/worker"
	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/internal/domain/skill"
	"github.com/smartystreets/goconvey/convey"
)

// skillScorer scores sequentially with skill.Compute.
type skillScorer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *skillScorer) ScoreAll(_ context.Context, observed []float64, preds []model.NamedSeries) ([]model.ScoredSeries, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.ScoredSeries, len(preds))
	for i, p := range preds {
		res, err := skill.Compute(observed, p.Values)
		out[i] = model.ScoredSeries{Name: p.Name, Result: res, Err: err}
		if err != nil {
			out[i].Error = err.Error()
		}
	}
	return out, nil
}

func (s *skillScorer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func seed(ctx context.Context, store *repository.MemoryStore, id string) {
	convey.So(store.Create(ctx, model.Run{ID: id, Status: model.StatusPending}), convey.ShouldBeNil)
}

func waitStatus(ctx context.Context, store *repository.MemoryStore, id string) model.Run {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r, err := store.Get(ctx, id)
		if err == nil && r.Status != model.StatusPending {
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	r, _ := store.Get(ctx, id)
	return r
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool draining a queue into a store and a leaderboard", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		store := repository.NewMemoryStore()
		board := repository.NewMemoryLeaderboard()
		scorer := &skillScorer{}
		pool := worker.NewPool(2, q, scorer, store, board)
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 2)

		convey.Convey("When a run with one good and one mismatched series is queued", func() {
			seed(ctx, store, "r1")
			err := q.Enqueue(ctx, model.Job{
				RunID:    "r1",
				Observed: []float64{2, 4, 6, 8},
				Predictions: []model.NamedSeries{
					{Name: "good", Values: []float64{1, 5, 5, 9}},
					{Name: "short", Values: []float64{1, 2}},
				},
			})
			convey.So(err, convey.ShouldBeNil)

			run := waitStatus(ctx, store, "r1")

			convey.Convey("Then the run completes with per-series outcomes", func() {
				convey.So(run.Status, convey.ShouldEqual, model.StatusDone)
				convey.So(len(run.Results), convey.ShouldEqual, 2)
				convey.So(run.Results[0].OK(), convey.ShouldBeTrue)
				convey.So(run.Results[1].OK(), convey.ShouldBeFalse)
				convey.So(errors.Is(run.Results[1].Err, skill.ErrShapeMismatch), convey.ShouldBeTrue)
				convey.So(run.CompletedAt, convey.ShouldNotBeNil)
			})

			convey.Convey("And only the scored series reaches the leaderboard", func() {
				entries, err := board.TopN(ctx, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 1)
				convey.So(entries[0].Model, convey.ShouldEqual, "good")
				convey.So(entries[0].RunID, convey.ShouldEqual, "r1")
				convey.So(entries[0].NSE, convey.ShouldAlmostEqual, 0.8, 1e-12)
			})
		})

		convey.Convey("When the queue is shut down with work pending", func() {
			for _, id := range []string{"a", "b", "c"} {
				seed(ctx, store, id)
				convey.So(q.Enqueue(ctx, model.Job{
					RunID:       id,
					Observed:    []float64{1, 2, 3},
					Predictions: []model.NamedSeries{{Name: id, Values: []float64{1, 2, 3}}},
				}), convey.ShouldBeNil)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued run is drained before workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, id := range []string{"a", "b", "c"} {
					r, _ := store.Get(ctx, id)
					convey.So(r.Status, convey.ShouldEqual, model.StatusDone)
				}
				convey.So(board.Count(ctx), convey.ShouldEqual, 3)
			})
		})
	})

	convey.Convey("Given a scorer that fails the whole run", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		store := repository.NewMemoryStore()
		board := repository.NewMemoryLeaderboard()
		scorer := &skillScorer{err: errors.New("scoring cancelled")}
		pool := worker.NewPool(1, q, scorer, store, board)
		pool.Start(ctx)

		seed(ctx, store, "bad")
		convey.So(q.Enqueue(ctx, model.Job{RunID: "bad"}), convey.ShouldBeNil)
		run := waitStatus(ctx, store, "bad")

		convey.Convey("Then the run is marked failed with the reason", func() {
			convey.So(run.Status, convey.ShouldEqual, model.StatusFailed)
			convey.So(run.Error, convey.ShouldEqual, "scoring cancelled")
			convey.So(board.Count(ctx), convey.ShouldEqual, 0)
		})

		convey.Convey("And stopping the pool returns promptly", func() {
			stopCtx, stopCancel := context.WithTimeout(ctx, time.Second)
			defer stopCancel()
			convey.So(pool.Stop(stopCtx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a single worker on an idle queue", t, func() {
		q := queue.NewInMemoryQueue()
		store := repository.NewMemoryStore()
		board := repository.NewMemoryLeaderboard()
		scorer := &skillScorer{}
		w := worker.NewInMemoryWorker(q, scorer, store, board, worker.WithName("solo"))
		go w.Run(context.Background())

		convey.Convey("When shut down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then it stops without scoring anything", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(scorer.Calls(), convey.ShouldEqual, 0)
				<-w.Done()
			})

			convey.Convey("And a second shutdown is harmless", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, &skillScorer{}, repository.NewMemoryStore(), repository.NewMemoryLeaderboard())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then Run returns", func() {
			select {
			case <-w.Done():
			case <-time.After(time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}
