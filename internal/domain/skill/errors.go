package skill

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrEmptyInput         = errors.New("empty input")
	ErrMissingValue       = errors.New("missing value")
	ErrDegenerateVariance = errors.New("degenerate variance")
	ErrZeroSum            = errors.New("zero sum")
	ErrNonFinite          = errors.New("non-finite score")
)

// ScoreError names the statistics a failure applies to and why it happened.
// It unwraps to one of the sentinel kinds above.
type ScoreError struct {
	Statistics []Statistic
	Kind       error
	Detail     string
}

func (e *ScoreError) Error() string {
	names := make([]string, len(e.Statistics))
	for i, s := range e.Statistics {
		names[i] = string(s)
	}
	msg := fmt.Sprintf("skill: %s: %v", strings.Join(names, ", "), e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ScoreError) Unwrap() error { return e.Kind }

func newError(kind error, stats []Statistic, format string, args ...any) *ScoreError {
	return &ScoreError{
		Statistics: stats,
		Kind:       kind,
		Detail:     fmt.Sprintf(format, args...),
	}
}
