package loadgen

import (
	"errors"
	"fmt"

	"github.com/okian/sketchmatch/internal/domain/types"
)

// ErrInconsistentBoard is returned when a leaderboard breaks its ordering.
var ErrInconsistentBoard = errors.New("inconsistent leaderboard")

// VerifyBoard checks that entries are sorted best first, ties ordered by
// player id, and ranks count strictly higher scores.
func VerifyBoard(b types.Board) error {
	for i, e := range b.Entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: %s: first rank is %d", ErrInconsistentBoard, b.PromptID, e.Rank)
			}
			continue
		}
		prev := b.Entries[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("%w: %s: entry %d outscores entry %d", ErrInconsistentBoard, b.PromptID, i, i-1)
		case e.Score == prev.Score && e.PlayerID <= prev.PlayerID:
			return fmt.Errorf("%w: %s: tie at %d not ordered by player", ErrInconsistentBoard, b.PromptID, i)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("%w: %s: tie at %d has rank %d, want %d", ErrInconsistentBoard, b.PromptID, i, e.Rank, prev.Rank)
		case e.Score < prev.Score && e.Rank != i+1:
			return fmt.Errorf("%w: %s: entry %d has rank %d, want %d", ErrInconsistentBoard, b.PromptID, i, e.Rank, i+1)
		}
	}
	return nil
}
