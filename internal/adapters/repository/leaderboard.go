package repository

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/okian/hydroskill/internal/domain/types"
	"github.com/okian/hydroskill/pkg/metrics"
)

// Ordering: NSE DESC, then model name ASC (deterministic).

type boardRecord struct {
	model string
	runID string
	nse   float64
	rmse  float64
}

// ranksBefore returns true if a should appear before b on the leaderboard.
func ranksBefore(a, b boardRecord) bool {
	if a.nse != b.nse {
		return a.nse > b.nse
	}
	return a.model < b.model
}

func compareRecords(a, b boardRecord) int {
	switch {
	case ranksBefore(a, b):
		return -1
	case ranksBefore(b, a):
		return 1
	default:
		return 0
	}
}

// MemoryLeaderboard keeps the per-model best in a slice sorted by rank. The
// number of distinct models is small, so inserts use binary search and a
// copy rather than a balanced tree.
type MemoryLeaderboard struct {
	mu      sync.RWMutex
	ordered []boardRecord
	byModel map[string]boardRecord
}

// NewMemoryLeaderboard constructs an empty leaderboard.
func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{byModel: make(map[string]boardRecord)}
}

// Offer implements Leaderboard.Offer.
func (b *MemoryLeaderboard) Offer(_ context.Context, modelName, runID string, nse, rmse float64) (bool, error) {
	if modelName == "" {
		return false, fmt.Errorf("%w: empty model name", ErrInvalidEntry)
	}
	if math.IsNaN(nse) || math.IsInf(nse, 0) {
		return false, fmt.Errorf("%w: nse %v for %s", ErrInvalidEntry, nse, modelName)
	}

	rec := boardRecord{model: modelName, runID: runID, nse: nse, rmse: rmse}

	b.mu.Lock()
	if old, ok := b.byModel[modelName]; ok {
		if nse <= old.nse {
			b.mu.Unlock()
			return false, nil
		}
		i, found := slices.BinarySearchFunc(b.ordered, old, compareRecords)
		if found {
			b.ordered = slices.Delete(b.ordered, i, i+1)
		}
	}
	i, _ := slices.BinarySearchFunc(b.ordered, rec, compareRecords)
	b.ordered = slices.Insert(b.ordered, i, rec)
	b.byModel[modelName] = rec
	count := len(b.byModel)
	b.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	metrics.UpdateRankedModels(count)
	return true, nil
}

// TopN implements Leaderboard.TopN. Models with equal NSE share a rank.
func (b *MemoryLeaderboard) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	limit := min(n, len(b.ordered))
	out := make([]types.Entry, limit)
	rank := 0
	for i := 0; i < limit; i++ {
		r := b.ordered[i]
		if i == 0 || r.nse != b.ordered[i-1].nse {
			rank++
		}
		out[i] = types.Entry{Rank: rank, Model: r.model, RunID: r.runID, NSE: r.nse, RMSE: r.rmse}
	}
	return out, nil
}

// Count implements Leaderboard.Count.
func (b *MemoryLeaderboard) Count(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byModel)
}
