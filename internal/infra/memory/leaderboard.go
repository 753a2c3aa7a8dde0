package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"timed-quiz-service/internal/domain"
)

// Leaderboard is an in-process high score table. It implements game.LeaderboardProvider.
type Leaderboard struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{}
}

// FetchTop returns up to limit entries, highest score first; ties keep submission order.
func (l *Leaderboard) FetchTop(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]domain.LeaderboardEntry, limit)
	copy(out, l.entries[:limit])
	return out, nil
}

func (l *Leaderboard) Submit(_ context.Context, playerName string, score int) error {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" || score < 0 {
		return domain.ErrInvalidSubmission
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, domain.LeaderboardEntry{PlayerName: playerName, Score: score})
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Score > l.entries[j].Score
	})
	return nil
}
