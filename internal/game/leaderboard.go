package game

import (
	"context"

	"timed-quiz-service/internal/domain"
)

// LeaderboardProvider reads and writes the shared high score table.
type LeaderboardProvider interface {
	// FetchTop returns at most limit entries sorted by score, highest first.
	FetchTop(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Submit(ctx context.Context, playerName string, score int) error
}

// IsEligible reports whether finalScore earns a place on a board that keeps
// entries rows. snapshot must be sorted descending.
func IsEligible(finalScore int, snapshot []domain.LeaderboardEntry, entries int) bool {
	if finalScore <= 0 {
		return false
	}
	if len(snapshot) < entries {
		return true
	}
	return finalScore >= snapshot[len(snapshot)-1].Score
}
