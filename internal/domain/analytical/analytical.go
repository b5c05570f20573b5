// Package analytical evaluates the Dupuit–Forchheimer steady-state head in
// an unconfined aquifer between two fixed-head boundaries with uniform
// recharge:
//
//	h(x) = sqrt(h1² − (h1² − h2²)·x/L + (W/K)·(L − x)·x)
package analytical

import (
	"fmt"
	"math"
)

const daysPerYear = 365

// DefaultPoints is the number of profile positions used by the tutorial.
const DefaultPoints = 32

// Params describes the aquifer. Units must be consistent (m and m/day).
type Params struct {
	H1 float64 `json:"h1" koanf:"h1"` // head at x = 0
	H2 float64 `json:"h2" koanf:"h2"` // head at x = L
	L  float64 `json:"l" koanf:"l"`   // distance between boundaries
	W  float64 `json:"w" koanf:"w"`   // recharge rate
	K  float64 `json:"k" koanf:"k"`   // hydraulic conductivity
}

// DefaultParams returns the tutorial aquifer: 0.762 m/year recharge over a
// 1500 m strip between heads of 11.2 m and 9.6 m.
func DefaultParams() Params {
	return Params{
		H1: 11.2,
		H2: 9.6,
		L:  1500,
		W:  0.762 / daysPerYear,
		K:  110,
	}
}

// Validate checks that the parameters describe a physical aquifer.
func (p Params) Validate() error {
	switch {
	case p.L <= 0:
		return fmt.Errorf("%w: length must be positive, got %v", ErrInvalidParams, p.L)
	case p.K <= 0:
		return fmt.Errorf("%w: conductivity must be positive, got %v", ErrInvalidParams, p.K)
	case p.H1 <= 0 || p.H2 <= 0:
		return fmt.Errorf("%w: boundary heads must be positive, got %v and %v", ErrInvalidParams, p.H1, p.H2)
	case math.IsNaN(p.W) || math.IsInf(p.W, 0):
		return fmt.Errorf("%w: recharge must be finite", ErrInvalidParams)
	}
	return nil
}

// Head returns h(x).
func (p Params) Head(x float64) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p.head(x)
}

func (p Params) head(x float64) (float64, error) {
	if x < 0 || x > p.L || math.IsNaN(x) {
		return 0, fmt.Errorf("%w: x=%v not in [0, %v]", ErrOutOfDomain, x, p.L)
	}
	h1sq := p.H1 * p.H1
	h2sq := p.H2 * p.H2
	rad := h1sq - (h1sq-h2sq)*x/p.L + (p.W/p.K)*(p.L-x)*x
	if rad < 0 {
		return 0, fmt.Errorf("%w: x=%v", ErrNegativeRadicand, x)
	}
	return math.Sqrt(rad), nil
}

// Profile evaluates h at n evenly spaced positions from 0 to L inclusive.
func (p Params) Profile(n int) (xs, heads []float64, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	xs = Linspace(0, p.L, n)
	heads = make([]float64, len(xs))
	for i, x := range xs {
		if heads[i], err = p.head(x); err != nil {
			return nil, nil, err
		}
	}
	return xs, heads, nil
}

// Linspace returns n evenly spaced values over [start, stop]. The last value
// is exactly stop.
func Linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
