package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrBackpressure = errors.New("scoring queue is full")
	ErrNotStarted   = errors.New("service not started")
)
