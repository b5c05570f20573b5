// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers a YAML file and HYDROSKILL_* environment variables on top.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory scoring queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers and the fan-out limit
	// of synchronous scoring.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many run ids are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRuns bounds the run store; the oldest run is evicted first.
	MaxRuns int `koanf:"max_runs"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxSeriesLength caps the number of samples accepted per series.
	MaxSeriesLength int `koanf:"max_series_length"`

	// DateLayout is the time.Parse layout of CSV timestamp columns.
	DateLayout string `koanf:"date_layout"`

	// SkipLeading drops this many aligned samples before scoring CSV input.
	SkipLeading int `koanf:"skip_leading"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxRuns:             10_000,
		MaxLeaderboardLimit: 100,
		MaxSeriesLength:     1_000_000,
		DateLayout:          "02/01/2006 15:04",
		SkipLeading:         0,
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxRuns < 0:
		return fmt.Errorf("%w: max_runs must not be negative, got %d", ErrInvalidConfig, c.MaxRuns)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.MaxSeriesLength < 1:
		return fmt.Errorf("%w: max_series_length must be positive, got %d", ErrInvalidConfig, c.MaxSeriesLength)
	case c.DateLayout == "":
		return fmt.Errorf("%w: date_layout must not be empty", ErrInvalidConfig)
	case c.SkipLeading < 0:
		return fmt.Errorf("%w: skip_leading must not be negative, got %d", ErrInvalidConfig, c.SkipLeading)
	}
	return nil
}
