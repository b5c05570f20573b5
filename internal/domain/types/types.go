// Package types contains common types used across the application
package types

// Entry represents a leaderboard row: a model's best NSE across runs.
type Entry struct {
	Rank  int     `json:"rank"`
	Model string  `json:"model"`
	RunID string  `json:"run_id"`
	NSE   float64 `json:"nse"`
	RMSE  float64 `json:"rmse"`
}
