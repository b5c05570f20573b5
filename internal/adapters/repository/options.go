package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxRuns bounds the number of runs kept. Once the bound is reached the
// oldest run is evicted. Zero or less keeps every run.
func WithMaxRuns(n int) Option {
	return func(s *MemoryStore) {
		s.maxRuns = n
	}
}
