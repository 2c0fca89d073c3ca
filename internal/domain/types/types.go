// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry for one prompt.
type Entry struct {
	Rank      int     `json:"rank"`
	PlayerID  string  `json:"player_id"`
	Score     float64 `json:"score"`
	AttemptID string  `json:"attempt_id,omitempty"`
}

// Board is a prompt's leaderboard page.
type Board struct {
	PromptID string  `json:"prompt_id"`
	Entries  []Entry `json:"entries"`
}
