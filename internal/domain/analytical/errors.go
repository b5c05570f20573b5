package analytical

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidParams    = errors.New("invalid aquifer parameters")
	ErrOutOfDomain      = errors.New("position outside aquifer")
	ErrNegativeRadicand = errors.New("head undefined: negative radicand")
)
