package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/game"
	"timed-quiz-service/internal/infra/memory"
)

func testSettings() game.Settings {
	return game.Settings{
		GameDuration:           60,
		PointsPerAnswer:        10,
		StreakRequirement:      3,
		StreakBonus:            10,
		PenaltyPerWrongPoints:  5,
		PenaltyPerWrongSeconds: 2,
		CheatCost:              10,
		CheatAnswersRemoved:    2,
		LeaderboardEntries:     5,
		WarningSeconds:         5,
		SettleDelay:            200 * time.Millisecond,
		NextQuestionDelay:      800 * time.Millisecond,
		FeedbackDuration:       time.Second,
	}
}

func newService(t *testing.T, clock clockwork.Clock) (*app.GameService, *memory.SessionStore, *memory.Leaderboard) {
	t.Helper()
	titles := []domain.Title{
		{ID: "t1", Title: "Alien", Visual: "alien.jpg"},
		{ID: "t2", Title: "Heat", Visual: "heat.jpg"},
		{ID: "t3", Title: "Jaws", Visual: "jaws.jpg"},
	}
	store := memory.NewSessionStore()
	board := memory.NewLeaderboard()
	bank := memory.NewQuestionBank(memory.NewStaticCatalogLoader(titles), time.Minute, 4)
	service := app.NewGameService(store, bank, board, game.NewClockScheduler(clock), testSettings(), zerolog.Nop())
	return service, store, board
}

func TestOpenStoresSessionOnWelcome(t *testing.T) {
	service, store, _ := newService(t, clockwork.NewFakeClock())

	id, err := service.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if id == "" {
		t.Fatalf("expected session id")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", store.Len())
	}
	snap, err := service.Snapshot(id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.State != game.StateWelcome {
		t.Fatalf("expected welcome, got %s", snap.State)
	}
	if !snap.Muted {
		t.Fatalf("expected sound muted by default")
	}
}

func TestOpenRejectsInvalidSettings(t *testing.T) {
	settings := testSettings()
	settings.GameDuration = 0
	service := app.NewGameService(memory.NewSessionStore(),
		memory.NewQuestionBank(memory.NewStaticCatalogLoader(nil), time.Minute, 4),
		memory.NewLeaderboard(),
		game.NewClockScheduler(clockwork.NewFakeClock()),
		settings, zerolog.Nop())

	if _, err := service.Open(context.Background()); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestDispatchStartsRoundAndOpensGate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	service, _, _ := newService(t, clock)
	ctx := context.Background()

	id, err := service.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	events, cancel, err := service.Subscribe(id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := service.Dispatch(ctx, id, game.Intent{Type: game.IntentStart}); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap, _ := service.Snapshot(id)
	if snap.State != game.StatePlaying {
		t.Fatalf("expected playing, got %s", snap.State)
	}
	if snap.Question == nil || len(snap.Question.Options) != 3 {
		t.Fatalf("expected a question with three options, got %+v", snap.Question)
	}
	if !snap.InputPaused {
		t.Fatalf("expected input paused until settle delay elapses")
	}

	clock.Advance(200 * time.Millisecond)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events closed")
			}
			if ev.Snapshot.State == game.StatePlaying && !ev.Snapshot.InputPaused {
				return
			}
		case <-deadline:
			t.Fatalf("input gate never opened")
		}
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	service, _, _ := newService(t, clockwork.NewFakeClock())

	if err := service.Dispatch(context.Background(), "missing", game.Intent{Type: game.IntentStart}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, _, err := service.Subscribe("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := service.Snapshot("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCloseRemovesSession(t *testing.T) {
	service, store, _ := newService(t, clockwork.NewFakeClock())
	ctx := context.Background()

	id, _ := service.Open(ctx)
	events, _, err := service.Subscribe(id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	service.Close(id)
	if store.Len() != 0 {
		t.Fatalf("expected session removed")
	}
	for range events {
	}
	if err := service.Dispatch(ctx, id, game.Intent{Type: game.IntentStart}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}
	service.Close(id)
}

func TestLeaderboardUsesConfiguredLimit(t *testing.T) {
	service, _, board := newService(t, clockwork.NewFakeClock())
	ctx := context.Background()
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		if err := board.Submit(ctx, name, i*10); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	top, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(top))
	}
	if top[0].PlayerName != "g" || top[0].Score != 60 {
		t.Fatalf("expected highest score first, got %+v", top[0])
	}
}
