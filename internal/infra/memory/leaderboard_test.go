package memory

import (
	"context"
	"errors"
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestLeaderboardOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard()
	for _, e := range []domain.LeaderboardEntry{{PlayerName: "Ann", Score: 30}, {PlayerName: "Bob", Score: 50}, {PlayerName: "Cy", Score: 30}, {PlayerName: "Di", Score: 10}} {
		if err := board.Submit(ctx, e.PlayerName, e.Score); err != nil {
			t.Fatalf("submit %s: %v", e.PlayerName, err)
		}
	}

	top, err := board.FetchTop(ctx, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []domain.LeaderboardEntry{{PlayerName: "Bob", Score: 50}, {PlayerName: "Ann", Score: 30}, {PlayerName: "Cy", Score: 30}}
	if len(top) != len(want) {
		t.Fatalf("expected %v, got %v", want, top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, top)
		}
	}
}

func TestLeaderboardRejectsInvalidSubmission(t *testing.T) {
	board := NewLeaderboard()
	if err := board.Submit(context.Background(), "  ", 10); !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Fatalf("expected invalid submission for blank name, got %v", err)
	}
	if err := board.Submit(context.Background(), "Ann", -1); !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Fatalf("expected invalid submission for negative score, got %v", err)
	}
}
