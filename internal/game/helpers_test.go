package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

// manualScheduler runs callbacks synchronously from Advance, in due order.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at        time.Duration
	every     time.Duration
	seq       int
	f         func()
	cancelled bool
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Cancel {
	return m.add(d, 0, f)
}

func (m *manualScheduler) Every(d time.Duration, f func()) Cancel {
	return m.add(d, d, f)
}

func (m *manualScheduler) add(d, every time.Duration, f func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{at: m.now + d, every: every, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)
	return func() {
		m.mu.Lock()
		t.cancelled = true
		m.mu.Unlock()
	}
}

// Advance moves virtual time forward, firing everything due on the way.
func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	for {
		m.mu.Lock()
		var next *manualTask
		for _, t := range m.tasks {
			if t.cancelled || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		if next.every > 0 {
			next.at += next.every
		} else {
			next.cancelled = true
		}
		m.mu.Unlock()
		next.f()
	}
}

// pending counts live scheduled callbacks.
func (m *manualScheduler) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type stubQuestions struct {
	mu        sync.Mutex
	questions []domain.Question
	err       error
	calls     int
}

func (p *stubQuestions) NextQuestion(_ context.Context, seen []string) (domain.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return domain.Question{}, p.err
	}
	skip := make(map[string]bool, len(seen))
	for _, id := range seen {
		skip[id] = true
	}
	for _, q := range p.questions {
		if !skip[q.ID] {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionsExhausted
}

type stubBoard struct {
	mu        sync.Mutex
	entries   []domain.LeaderboardEntry
	submitErr error
	fetchErr  error
	submitted []domain.LeaderboardEntry
}

func (b *stubBoard) FetchTop(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	out := append([]domain.LeaderboardEntry(nil), b.entries...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *stubBoard) Submit(_ context.Context, name string, score int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return b.submitErr
	}
	entry := domain.LeaderboardEntry{PlayerName: name, Score: score}
	b.submitted = append(b.submitted, entry)
	b.entries = append(b.entries, entry)
	return nil
}

func makeQuestions(n int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Question{
			ID:            fmt.Sprintf("q%d", i),
			Visual:        fmt.Sprintf("/static/images/%d.jpg", i),
			CorrectAnswer: fmt.Sprintf("right-%d", i),
			Options: []string{
				fmt.Sprintf("wrong-a-%d", i),
				fmt.Sprintf("right-%d", i),
				fmt.Sprintf("wrong-b-%d", i),
				fmt.Sprintf("wrong-c-%d", i),
			},
		})
	}
	return out
}

const (
	testSettle = 10 * time.Millisecond
	testNext   = 20 * time.Millisecond
)

func testSettings() Settings {
	return Settings{
		GameDuration:           60,
		PointsPerAnswer:        10,
		StreakRequirement:      3,
		StreakBonus:            15,
		PenaltyPerWrongPoints:  5,
		PenaltyPerWrongSeconds: 2,
		CheatCost:              10,
		CheatAnswersRemoved:    2,
		LeaderboardEntries:     10,
		WarningSeconds:         5,
		SettleDelay:            testSettle,
		NextQuestionDelay:      testNext,
		FeedbackDuration:       1500 * time.Millisecond,
	}
}

type harness struct {
	session   *Session
	sched     *manualScheduler
	questions *stubQuestions
	board     *stubBoard
}

func newHarness(t *testing.T, settings Settings, questions int) *harness {
	t.Helper()
	h := &harness{
		sched:     &manualScheduler{},
		questions: &stubQuestions{questions: makeQuestions(questions)},
		board:     &stubBoard{},
	}
	s, err := NewSession("test", settings, h.questions, h.board, h.sched, WithRand(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	h.session = s
	s.Open(context.Background())
	return h
}

func (h *harness) dispatch(t *testing.T, in Intent) {
	t.Helper()
	if err := h.session.Dispatch(context.Background(), in); err != nil {
		t.Fatalf("dispatch %s: %v", in.Type, err)
	}
}

// start begins a round and waits out the settle delay.
func (h *harness) start(t *testing.T) {
	t.Helper()
	h.dispatch(t, Intent{Type: IntentStart})
	h.sched.Advance(testSettle)
}

func (h *harness) current(t *testing.T) domain.Question {
	t.Helper()
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	if h.session.round == nil || h.session.round.current == nil {
		t.Fatalf("no live question")
	}
	return *h.session.round.current
}

// answerCorrect answers the live question correctly and waits for the next one.
func (h *harness) answerCorrect(t *testing.T) {
	t.Helper()
	q := h.current(t)
	h.dispatch(t, Intent{Type: IntentAnswer, Option: q.CorrectAnswer})
	h.sched.Advance(testNext + testSettle)
}

func wrongOption(q domain.Question) string {
	for _, o := range q.Options {
		if o != q.CorrectAnswer {
			return o
		}
	}
	return ""
}
