package api

import "github.com/okian/hydroskill/pkg/logger"

const (
	defaultMaxLeaderboardLimit = 100
	defaultMaxBodyBytes        = 32 << 20
)

// Option configures the API server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the limit a leaderboard query may ask for.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxBodyBytes caps the size of a request body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}
