// Package repository holds per-prompt leaderboards and attempt results.
package repository

import (
	"context"

	"github.com/okian/sketchmatch/internal/domain/types"
)

// Entry represents a leaderboard row.
type Entry = types.Entry

// Store provides read/write access to per-prompt rankings.
//
// Ordering is score DESC then player ASC. Tied scores share a rank and the
// next distinct score skips past them (1, 1, 3).
type Store interface {
	// UpdateBest records score for the player on the prompt if it beats the
	// player's current best. It reports whether the best changed.
	UpdateBest(ctx context.Context, promptID, playerID string, score float64, attemptID string) (bool, error)

	// Rank returns the player's entry on the prompt's board, or ErrNotFound.
	Rank(ctx context.Context, promptID, playerID string) (Entry, error)

	// TopN returns up to n entries of the prompt's board. n < 1 is ErrInvalidLimit.
	TopN(ctx context.Context, promptID string, n int) ([]Entry, error)

	// Count returns the number of (prompt, player) entries across boards.
	Count(ctx context.Context) int

	Close() error
}
