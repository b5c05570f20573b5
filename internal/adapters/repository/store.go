// Package repository holds scoring runs and the leaderboard of models ranked
// by Nash–Sutcliffe efficiency.
package repository

import (
	"context"
	"time"

	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/internal/domain/types"
)

// Store provides read/write access to submitted runs.
type Store interface {
	// Create stores a new pending run. Returns ErrExists if the id is taken.
	Create(ctx context.Context, run model.Run) error

	// Get returns a copy of the run. Returns ErrNotFound if it is unknown.
	Get(ctx context.Context, id string) (model.Run, error)

	// Complete marks the run done with its per-series results.
	Complete(ctx context.Context, id string, results []model.ScoredSeries, at time.Time) error

	// Fail marks the run failed with a reason.
	Fail(ctx context.Context, id string, reason string, at time.Time) error

	// Delete removes a run. Unknown ids are ignored.
	Delete(ctx context.Context, id string)

	// Count returns the number of runs held.
	Count(ctx context.Context) int
}

// Leaderboard keeps the best NSE seen for each model name.
type Leaderboard interface {
	// Offer records a score for model from run. Returns true if it
	// improved the model's best NSE.
	Offer(ctx context.Context, modelName, runID string, nse, rmse float64) (bool, error)

	// TopN returns the top-N entries ordered by NSE desc, then model name asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of ranked models.
	Count(ctx context.Context) int
}
