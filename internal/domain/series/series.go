// Package series loads observed and modelled time series and aligns them on
// exact timestamps so they can be scored sample by sample.
//
// Which samples to drop (a leading gap in the monitoring record, trailing
// days the model does not cover) is decided here, never by the scorer.
package series

import (
	"fmt"
	"math"
	"time"
)

// Series is a named sequence of timestamped values. Missing samples are NaN.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Values) }

// Pair is one prediction aligned against the observations.
type Pair struct {
	Name      string
	Times     []time.Time
	Observed  []float64
	Predicted []float64
}

// Set is one observation series aligned against any number of predictions.
// Every slice shares the same length and index i always refers to Times[i].
type Set struct {
	Times     []time.Time
	Observed  []float64
	Names     []string
	Predicted [][]float64
}

// Len returns the number of aligned instants.
func (s Set) Len() int { return len(s.Times) }

// Pair returns prediction i against the observations.
func (s Set) Pair(i int) Pair {
	return Pair{
		Name:      s.Names[i],
		Times:     s.Times,
		Observed:  s.Observed,
		Predicted: s.Predicted[i],
	}
}

// Align matches every observation timestamp against each prediction series.
// Matching is exact; observations with no counterpart in every prediction
// are dropped. The observation order is preserved.
func Align(obs Series, preds ...Series) (Set, error) {
	if len(obs.Times) != len(obs.Values) {
		return Set{}, fmt.Errorf("%w: %s has %d timestamps and %d values", ErrParse, obs.Name, len(obs.Times), len(obs.Values))
	}

	indexes := make([]map[int64]int, len(preds))
	for i, p := range preds {
		if len(p.Times) != len(p.Values) {
			return Set{}, fmt.Errorf("%w: %s has %d timestamps and %d values", ErrParse, p.Name, len(p.Times), len(p.Values))
		}
		idx := make(map[int64]int, len(p.Times))
		for j, ts := range p.Times {
			key := ts.UnixNano()
			if _, dup := idx[key]; dup {
				return Set{}, fmt.Errorf("%w: %s at %s", ErrDuplicateTime, p.Name, ts.Format(time.RFC3339))
			}
			idx[key] = j
		}
		indexes[i] = idx
	}

	set := Set{
		Names:     make([]string, len(preds)),
		Predicted: make([][]float64, len(preds)),
	}
	for i, p := range preds {
		set.Names[i] = p.Name
	}

	row := make([]int, len(preds))
	for k, ts := range obs.Times {
		key := ts.UnixNano()
		matched := true
		for i := range preds {
			j, ok := indexes[i][key]
			if !ok {
				matched = false
				break
			}
			row[i] = j
		}
		if !matched {
			continue
		}
		set.Times = append(set.Times, ts)
		set.Observed = append(set.Observed, obs.Values[k])
		for i := range preds {
			set.Predicted[i] = append(set.Predicted[i], preds[i].Values[row[i]])
		}
	}

	if set.Len() == 0 {
		return Set{}, fmt.Errorf("%w: %s against %d prediction series", ErrNoOverlap, obs.Name, len(preds))
	}
	return set, nil
}

// Option configures Prepare.
type Option func(*prepareConfig)

type prepareConfig struct {
	skipLeading int
	dropMissing bool
}

// WithSkipLeading drops the first n aligned samples.
func WithSkipLeading(n int) Option {
	return func(c *prepareConfig) {
		if n > 0 {
			c.skipLeading = n
		}
	}
}

// WithDropMissing drops instants where any series is missing a value.
func WithDropMissing() Option {
	return func(c *prepareConfig) {
		c.dropMissing = true
	}
}

// Prepare applies the sample drop policy and checks that no missing value
// remains. The receiver is left untouched.
func (s Set) Prepare(opts ...Option) (Set, error) {
	cfg := prepareConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := cfg.skipLeading
	if start > s.Len() {
		start = s.Len()
	}

	out := Set{
		Names:     append([]string(nil), s.Names...),
		Predicted: make([][]float64, len(s.Predicted)),
	}
	for k := start; k < s.Len(); k++ {
		if missing, which := s.missingAt(k); missing {
			if cfg.dropMissing {
				continue
			}
			return Set{}, fmt.Errorf("%w: %s at %s", ErrMissingValue, which, s.Times[k].Format(time.RFC3339))
		}
		out.Times = append(out.Times, s.Times[k])
		out.Observed = append(out.Observed, s.Observed[k])
		for i := range s.Predicted {
			out.Predicted[i] = append(out.Predicted[i], s.Predicted[i][k])
		}
	}

	if out.Len() == 0 {
		return Set{}, fmt.Errorf("%w: nothing left after dropping samples", ErrNoOverlap)
	}
	return out, nil
}

func (s Set) missingAt(k int) (bool, string) {
	if math.IsNaN(s.Observed[k]) {
		return true, "observed"
	}
	for i := range s.Predicted {
		if math.IsNaN(s.Predicted[i][k]) {
			return true, s.Names[i]
		}
	}
	return false, ""
}
