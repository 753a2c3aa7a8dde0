package game

import (
	"context"
	"errors"
	"fmt"

	"timed-quiz-service/internal/domain"
)

// QuestionProvider hands out one question whose id is not in seen, or
// domain.ErrQuestionsExhausted.
type QuestionProvider interface {
	NextQuestion(ctx context.Context, seen []string) (domain.Question, error)
}

// History is the per-round record of fetched questions in fetch order.
type History struct {
	order   []string
	entries map[string]*domain.Attempt
}

func newHistory() *History {
	return &History{entries: make(map[string]*domain.Attempt)}
}

// Seen returns a copy of the fetched ids in fetch order.
func (h *History) Seen() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

func (h *History) Contains(id string) bool {
	_, ok := h.entries[id]
	return ok
}

func (h *History) add(q domain.Question) bool {
	if h.Contains(q.ID) {
		return false
	}
	h.order = append(h.order, q.ID)
	h.entries[q.ID] = &domain.Attempt{QuestionID: q.ID, CorrectAnswer: q.CorrectAnswer}
	return true
}

func (h *History) attempt(id string, correct bool) {
	entry, ok := h.entries[id]
	if !ok {
		return
	}
	entry.Tries++
	if correct {
		entry.AnsweredCorrectly = true
	}
}

// Get returns the history entry for id.
func (h *History) Get(id string) (domain.Attempt, bool) {
	entry, ok := h.entries[id]
	if !ok {
		return domain.Attempt{}, false
	}
	return *entry, true
}

// Attempted lists the questions with at least one try, in fetch order.
func (h *History) Attempted() []domain.Attempt {
	out := make([]domain.Attempt, 0, len(h.order))
	for _, id := range h.order {
		if entry := h.entries[id]; entry.Tries > 0 {
			out = append(out, *entry)
		}
	}
	return out
}

// Sequencer requests unseen questions and records them in the round history.
type Sequencer struct {
	provider QuestionProvider
	history  *History
}

func NewSequencer(provider QuestionProvider, history *History) *Sequencer {
	return &Sequencer{provider: provider, history: history}
}

// Fetch asks the provider for a question not in seen. It does not touch the
// history, so it can run without the session lock held.
func (s *Sequencer) Fetch(ctx context.Context, seen []string) (domain.Question, error) {
	q, err := s.provider.NextQuestion(ctx, seen)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionsExhausted) {
			return domain.Question{}, domain.ErrQuestionsExhausted
		}
		return domain.Question{}, fmt.Errorf("%w: fetch question: %v", domain.ErrProviderUnavailable, err)
	}
	return q, nil
}

// Accept records a fetched question. A repeated id is a provider fault.
func (s *Sequencer) Accept(q domain.Question) error {
	if q.ID == "" || len(q.Options) == 0 {
		return fmt.Errorf("%w: malformed question %q", domain.ErrProviderUnavailable, q.ID)
	}
	if !s.history.add(q) {
		return fmt.Errorf("%w: question %q already seen", domain.ErrProviderUnavailable, q.ID)
	}
	return nil
}

// RequestNext fetches and accepts in one step.
func (s *Sequencer) RequestNext(ctx context.Context) (domain.Question, error) {
	q, err := s.Fetch(ctx, s.history.Seen())
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.Accept(q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}
