package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/game"
)

// SessionRepository abstracts where live game sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *game.Session)
	Get(id string) (*game.Session, bool)
	Delete(id string)
}

// GameService contains the game use cases shared by every transport.
type GameService struct {
	sessions  SessionRepository
	questions game.QuestionProvider
	board     game.LeaderboardProvider
	sched     game.Scheduler
	settings  game.Settings
	log       zerolog.Logger
	newID     func() string
}

func NewGameService(store SessionRepository, questions game.QuestionProvider, board game.LeaderboardProvider, sched game.Scheduler, settings game.Settings, log zerolog.Logger) *GameService {
	return &GameService{
		sessions:  store,
		questions: questions,
		board:     board,
		sched:     sched,
		settings:  settings,
		log:       log.With().Str("component", "game_service").Logger(),
		newID:     func() string { return uuid.NewString() },
	}
}

// Open creates a session on the welcome screen and returns its id.
func (s *GameService) Open(ctx context.Context) (string, error) {
	id := s.newID()
	session, err := game.NewSession(id, s.settings, s.questions, s.board, s.sched,
		game.WithLogger(s.log))
	if err != nil {
		return "", err
	}
	session.Open(ctx)
	s.sessions.Put(session)
	s.log.Debug().Str("session_id", id).Msg("session opened")
	return id, nil
}

// Dispatch forwards an intent to the session.
func (s *GameService) Dispatch(ctx context.Context, id string, in game.Intent) error {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Dispatch(ctx, in)
}

// Subscribe returns a channel of session events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(id string) (<-chan game.Event, func(), error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

func (s *GameService) Snapshot(id string) (game.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return game.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Close stops the session's timers and forgets it.
func (s *GameService) Close(id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(id)
	s.log.Debug().Str("session_id", id).Msg("session closed")
}

// Leaderboard returns the current top entries.
func (s *GameService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.board.FetchTop(ctx, s.settings.LeaderboardEntries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GameService) Settings() game.Settings {
	return s.settings
}
