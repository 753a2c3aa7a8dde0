package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/domain"
)

// LeaderboardStore persists high scores. It implements game.LeaderboardProvider.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

// FetchTop returns the best limit scores; ties go to the earlier submission.
func (s *LeaderboardStore) FetchTop(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT player_name, score FROM leaderboard ORDER BY score DESC, created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	return entries, nil
}

func (s *LeaderboardStore) Submit(ctx context.Context, playerName string, score int) error {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" || score < 0 {
		return domain.ErrInvalidSubmission
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard (player_name, score) VALUES ($1, $2)`, playerName, score); err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	return nil
}
