package series

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrParse         = errors.New("parse series")
	ErrNoOverlap     = errors.New("no overlapping timestamps")
	ErrMissingValue  = errors.New("missing value after alignment")
	ErrDuplicateTime = errors.New("duplicate timestamp")
)
