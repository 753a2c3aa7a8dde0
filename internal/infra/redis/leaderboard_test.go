package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

func TestLeaderboardCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingBoard{Leaderboard: memory.NewLeaderboard()}
	_ = backing.Submit(context.Background(), "Ann", 40)
	board := NewLeaderboard(newClient(mr), backing, time.Minute)

	top, err := board.FetchTop(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch top: %v", err)
	}
	if len(top) != 1 || top[0].PlayerName != "Ann" {
		t.Fatalf("unexpected entries %+v", top)
	}
	if backing.fetches != 1 {
		t.Fatalf("expected backing fetched once, got %d", backing.fetches)
	}

	// Second call should hit cache, backing not incremented.
	_, _ = board.FetchTop(context.Background(), 10)
	if backing.fetches != 1 {
		t.Fatalf("expected cache hit, backing fetches=%d", backing.fetches)
	}
	if !mr.Exists(topKey) {
		t.Fatalf("expected snapshot cached under %s", topKey)
	}
}

func TestLeaderboardSubmitInvalidatesCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingBoard{Leaderboard: memory.NewLeaderboard()}
	board := NewLeaderboard(newClient(mr), backing, time.Minute)

	if top, _ := board.FetchTop(context.Background(), 10); len(top) != 0 {
		t.Fatalf("expected empty board, got %+v", top)
	}
	if err := board.Submit(context.Background(), "Bob", 25); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if mr.Exists(topKey) {
		t.Fatalf("expected cache dropped after submit")
	}

	top, err := board.FetchTop(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch top: %v", err)
	}
	if len(top) != 1 || top[0] != (domain.LeaderboardEntry{PlayerName: "Bob", Score: 25}) {
		t.Fatalf("expected fresh entries, got %+v", top)
	}
	if backing.fetches != 2 {
		t.Fatalf("expected a second backing fetch, got %d", backing.fetches)
	}
}

type countingBoard struct {
	*memory.Leaderboard
	fetches int
}

func (b *countingBoard) FetchTop(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	b.fetches++
	return b.Leaderboard.FetchTop(ctx, limit)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
