package service

import "github.com/okian/hydroskill/pkg/logger"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of queue workers and the fan-out limit of
// ScoreAll.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued runs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many run ids are remembered. Zero keeps all.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRuns bounds the run store. Zero keeps all.
func WithMaxRuns(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRuns = n
		}
	}
}

// WithMaxSeriesLength caps the samples accepted per series.
func WithMaxSeriesLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSeriesLength = n
		}
	}
}

// WithIDGenerator replaces the run id generator used when a submission has
// no run id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
