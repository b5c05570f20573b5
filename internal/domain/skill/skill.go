// Package skill computes goodness-of-fit scores between an observed and a
// predicted series: Pearson's r, R², Nash–Sutcliffe efficiency, RMSE and
// percent bias (equations from table 5 of Moriasi et al. 2015).
//
// Compute is a pure function. It never returns a NaN or infinite score;
// degenerate inputs surface as *ScoreError values instead.
package skill

import (
	"encoding/json"
	"fmt"
	"math"
)

// Result holds the scores computed from one sample pair.
//
// PBIAS and the correlation pair (PearsonR, RSquared) may fail on their own
// while the remaining scores are still valid. Use Err or
// Value to check before reading those fields.
type Result struct {
	N        int
	PearsonR float64
	RSquared float64
	NSE      float64
	RMSE     float64
	PBIAS    float64

	correlationErr error
	pbiasErr       error
}

// Err returns the scoped failure for stat, or nil when the score is valid.
func (r Result) Err(stat Statistic) error {
	switch stat {
	case PearsonR, RSquared:
		return r.correlationErr
	case PBIAS:
		return r.pbiasErr
	default:
		return nil
	}
}

// Value returns the score for stat together with its scoped failure.
func (r Result) Value(stat Statistic) (float64, error) {
	if err := r.Err(stat); err != nil {
		return 0, err
	}
	switch stat {
	case PearsonR:
		return r.PearsonR, nil
	case RSquared:
		return r.RSquared, nil
	case NSE:
		return r.NSE, nil
	case RMSE:
		return r.RMSE, nil
	case PBIAS:
		return r.PBIAS, nil
	default:
		return 0, newError(ErrNonFinite, []Statistic{stat}, "unknown statistic")
	}
}

// Complete reports whether every score is available.
func (r Result) Complete() bool {
	return r.correlationErr == nil && r.pbiasErr == nil
}

// MarshalJSON encodes failed scores as null and lists their reasons under
// "errors", keyed by statistic name.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(reportOrder)+2)
	out["n"] = r.N
	failures := map[string]string{}
	for _, stat := range reportOrder {
		v, err := r.Value(stat)
		if err != nil {
			out[string(stat)] = nil
			failures[string(stat)] = err.Error()
			continue
		}
		out[string(stat)] = v
	}
	if len(failures) > 0 {
		out["errors"] = failures
	}
	return json.Marshal(out)
}

// Compute scores predicted against observed.
//
// Whole-result failures: ErrShapeMismatch, ErrEmptyInput, ErrMissingValue,
// ErrDegenerateVariance (constant observed series) and ErrNonFinite.
// Scoped failures, reported through Result.Err with a nil error return:
// ErrZeroSum for PBIAS, ErrDegenerateVariance for the correlation pair when
// the predicted series is flat, and ErrNonFinite for PBIAS or the
// correlation pair when only that score overflows.
//
// Sums accumulate left to right so results are reproducible.
func Compute(observed, predicted []float64) (Result, error) {
	if len(observed) != len(predicted) {
		return Result{}, newError(ErrShapeMismatch, reportOrder,
			"observed has %d values, predicted has %d", len(observed), len(predicted))
	}
	n := len(observed)
	if n == 0 {
		return Result{}, newError(ErrEmptyInput, reportOrder, "no samples to score")
	}
	if i, ok := firstNonFinite(observed); ok {
		return Result{}, newError(ErrMissingValue, reportOrder, "observed[%d] is %v", i, observed[i])
	}
	if i, ok := firstNonFinite(predicted); ok {
		return Result{}, newError(ErrMissingValue, reportOrder, "predicted[%d] is %v", i, predicted[i])
	}

	var sumO, sumP float64
	for i := range observed {
		sumO += observed[i]
		sumP += predicted[i]
	}
	nf := float64(n)
	meanO := sumO / nf
	meanP := sumP / nf

	var sxy, sxx, syy, sse, sdiff float64
	for i := range observed {
		do := observed[i] - meanO
		dp := predicted[i] - meanP
		sxy += do * dp
		sxx += do * do
		syy += dp * dp
		e := observed[i] - predicted[i]
		sse += e * e
		sdiff += e
	}

	if sxx == 0 || isConstant(observed) {
		return Result{}, newError(ErrDegenerateVariance, []Statistic{PearsonR, RSquared, NSE},
			"%s", flatDetail("observed", observed))
	}

	res := Result{N: n}

	if syy == 0 || isConstant(predicted) {
		res.correlationErr = newError(ErrDegenerateVariance, []Statistic{PearsonR, RSquared},
			"%s", flatDetail("predicted", predicted))
	} else {
		res.PearsonR = pearson(sxy, sxx, syy)
		res.RSquared = res.PearsonR * res.PearsonR
	}

	res.NSE = 1 - sse/sxx
	res.RMSE = math.Sqrt(sse / nf)

	if sumO == 0 {
		res.pbiasErr = newError(ErrZeroSum, []Statistic{PBIAS}, "sum of observed values is zero")
	} else {
		res.PBIAS = sdiff / sumO * 100
		if !finite(res.PBIAS) {
			res.PBIAS = 0
			res.pbiasErr = newError(ErrNonFinite, []Statistic{PBIAS}, "percent bias overflowed")
		}
	}

	if !finite(res.NSE) || !finite(res.RMSE) {
		return Result{}, newError(ErrNonFinite, []Statistic{NSE, RMSE},
			"squared error sum overflowed (sse=%v, sxx=%v)", sse, sxx)
	}
	if res.correlationErr == nil && !finite(res.PearsonR) {
		res.PearsonR, res.RSquared = 0, 0
		res.correlationErr = newError(ErrNonFinite, []Statistic{PearsonR, RSquared}, "correlation overflowed")
	}

	return res, nil
}

// minNormal is the smallest positive normal float64.
const minNormal = 0x1p-1022

func pearson(sxy, sxx, syy float64) float64 {
	// identical deviations give exactly ±1
	if sxx == syy && math.Abs(sxy) == sxx {
		return math.Copysign(1, sxy)
	}
	den := math.Sqrt(sxx * syy)
	if prod := sxx * syy; math.IsInf(prod, 0) || prod < minNormal {
		den = math.Sqrt(sxx) * math.Sqrt(syy)
	}
	return math.Max(-1, math.Min(1, sxy/den))
}

// flatDetail explains a zero sum of squared deviations in name.
func flatDetail(name string, xs []float64) string {
	if isConstant(xs) {
		return fmt.Sprintf("%s series is constant (value %v over %d samples)", name, xs[0], len(xs))
	}
	return fmt.Sprintf("%s variance underflows to zero over %d samples", name, len(xs))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func firstNonFinite(xs []float64) (int, bool) {
	for i, v := range xs {
		if !finite(v) {
			return i, true
		}
	}
	return 0, false
}

func isConstant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
