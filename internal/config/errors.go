package config

import "errors"

// Errors returned by Load and Validate; both are wrapped with the failing
// source or key.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("cannot load configuration")
)
