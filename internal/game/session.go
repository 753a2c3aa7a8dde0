package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"timed-quiz-service/internal/domain"
)

// Session is one player's game. All mutating work is serialized by mu; the
// clock ticker, delayed callbacks and provider calls re-enter through it.
//
// Every callback captures the epoch it was scheduled in. The epoch is bumped
// whenever a round starts or stops, so callbacks left over from an earlier
// round find a different epoch and do nothing.
type Session struct {
	id        string
	settings  Settings
	questions QuestionProvider
	board     LeaderboardProvider
	sched     Scheduler
	log       zerolog.Logger
	rnd       *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	state       State
	epoch       uint64
	round       *round
	timers      timerSet
	snapshot    []domain.LeaderboardEntry
	summary     *Summary
	exitScore   int
	muted       bool
	quitPending bool
	submitting  bool
	subscribers map[chan Event]struct{}
}

// round is the state that lives only while Playing.
type round struct {
	clock   *Clock
	history *History
	seq     *Sequencer
	ledger  *Ledger
	cheat   *Cheat

	current   *domain.Question
	removed   map[string]bool
	incorrect map[string]bool
	penalty   bool
	gate      bool
	fetching  bool
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// WithRand sets the source used to pick cheat removals.
func WithRand(rnd *rand.Rand) SessionOption {
	return func(s *Session) { s.rnd = rnd }
}

// NewSession validates settings and returns a session on the welcome screen.
func NewSession(id string, settings Settings, questions QuestionProvider, board LeaderboardProvider, sched Scheduler, opts ...SessionOption) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          id,
		settings:    settings,
		questions:   questions,
		board:       board,
		sched:       sched,
		log:         zerolog.Nop(),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:         ctx,
		cancel:      cancel,
		state:       StateWelcome,
		muted:       true,
		subscribers: make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session_id", id).Logger()
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Open loads the leaderboard and shows the welcome screen. A failed fetch
// leaves an empty board and is reported as an error event.
func (s *Session) Open(ctx context.Context) {
	top, err := s.board.FetchTop(ctx, s.settings.LeaderboardEntries)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to fetch leaderboard")
		s.emitErrorLocked("Could not load scores.")
	} else {
		s.snapshot = top
		s.emitLocked(EventLeaderboard)
	}
	s.state = StateWelcome
	s.emitScreenLocked()
}

// Dispatch applies a user intent. Intents that do not fit the current state
// are ignored; only unknown intents and closed sessions return errors.
func (s *Session) Dispatch(ctx context.Context, in Intent) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return domain.ErrSessionClosed
	}

	switch in.Type {
	case IntentStart:
		s.start(ctx, StateWelcome)
	case IntentPlayAgain:
		s.start(ctx, StateRoundSummary, StateExit)
	case IntentAnswer:
		s.answer(in.Option)
	case IntentCheat:
		s.useCheat()
	case IntentQuit:
		s.setQuitPending(true)
	case IntentQuitCancel:
		s.setQuitPending(false)
	case IntentQuitConfirm:
		s.quit()
	case IntentSaveScore:
		s.saveScore(ctx, in.PlayerName)
	case IntentSkipScore:
		s.skipScore()
	case IntentToggleSound:
		s.toggleSound()
	case IntentRetry:
		s.retry(ctx)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownIntent, in.Type)
	}
	return nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of events, starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- Event{Type: EventState, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the clock, cancels pending callbacks and closes subscriber channels.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopRoundLocked()
	s.cancel()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) start(ctx context.Context, from ...State) {
	s.mu.Lock()
	if !slices.Contains(from, s.state) || s.submitting {
		s.mu.Unlock()
		return
	}
	if s.summary != nil && s.summary.AwaitingName {
		s.mu.Unlock()
		return
	}

	s.stopRoundLocked()
	epoch := s.epoch
	s.round = s.newRound()
	s.summary = nil
	s.quitPending = false
	s.exitScore = 0
	s.round.clock.Start(s.settings.GameDuration)
	s.timers.add(s.sched.Every(time.Second, func() { s.tick(epoch) }))
	s.state = StatePlaying
	s.log.Info().Uint64("epoch", epoch).Int("duration", s.settings.GameDuration).Msg("round started")
	s.cueLocked(CueStart)
	s.emitScreenLocked()
	s.mu.Unlock()

	s.fetchNext(ctx, epoch)
}

func (s *Session) newRound() *round {
	history := newHistory()
	clock := NewClock(s.settings.WarningSeconds)
	return &round{
		clock:     clock,
		history:   history,
		seq:       NewSequencer(s.questions, history),
		ledger:    NewLedger(s.settings, clock, history),
		cheat:     NewCheat(s.settings, clock, s.rnd),
		removed:   make(map[string]bool),
		incorrect: make(map[string]bool),
	}
}

// stopRoundLocked guarantees no countdown or delayed callback survives.
func (s *Session) stopRoundLocked() {
	s.timers.cancelAll()
	if s.round != nil {
		s.round.clock.Stop()
	}
	s.epoch++
}

// afterLocked runs fn under the lock after d, unless the epoch moved on.
func (s *Session) afterLocked(d time.Duration, fn func()) {
	epoch := s.epoch
	s.timers.add(s.sched.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if epoch != s.epoch || s.closed {
			return
		}
		fn()
	}))
}

// fetchNext asks for the next question with the input gate closed. The lock
// is released while the provider runs so ticks keep flowing.
func (s *Session) fetchNext(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	r := s.round
	if epoch != s.epoch || s.state != StatePlaying || r == nil || r.fetching {
		s.mu.Unlock()
		return
	}
	r.gate = true
	r.fetching = true
	seen := r.history.Seen()
	s.emitLocked(EventState)
	s.mu.Unlock()

	q, err := r.seq.Fetch(ctx, seen)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.state != StatePlaying {
		return
	}
	r.fetching = false

	if errors.Is(err, domain.ErrQuestionsExhausted) {
		s.endRoundLocked("questions exhausted")
		return
	}
	if err == nil {
		err = r.seq.Accept(q)
	}
	if err != nil {
		r.current = nil
		s.log.Warn().Err(err).Msg("failed to fetch question")
		s.emitErrorLocked("Could not load the next question.")
	} else {
		r.current = &q
		r.removed = make(map[string]bool)
		r.incorrect = make(map[string]bool)
		r.penalty = false
		s.emitLocked(EventQuestion)
	}

	s.afterLocked(s.settings.SettleDelay, func() {
		r.gate = false
		s.emitLocked(EventState)
	})
}

func (s *Session) tick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.state != StatePlaying || s.round == nil {
		return
	}
	res := s.round.clock.Tick()
	if res.Warning {
		s.cueLocked(CueEnd)
	}
	s.emitLocked(EventTick)
	if res.Expired {
		s.endRoundLocked("time expired")
	}
}

func (s *Session) answer(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.round
	if s.state != StatePlaying || r == nil || r.gate || r.current == nil || s.quitPending {
		return
	}
	q := r.current
	if !q.HasOption(option) || r.removed[option] || r.incorrect[option] {
		return
	}

	r.gate = true
	res := r.ledger.RecordAttempt(q.ID, option, q.CorrectAnswer)
	switch res.Outcome {
	case Correct:
		s.cueLocked(CueCorrect)
		s.feedbackLocked("Correct!", FeedbackCorrect)
		if res.BonusSeconds > 0 {
			s.cueLocked(CueBonus)
			s.feedbackLocked(fmt.Sprintf("+%ds Bonus!", res.BonusSeconds), FeedbackBonus)
		}
		s.emitLocked(EventState)
		epoch := s.epoch
		s.timers.add(s.sched.AfterFunc(s.settings.NextQuestionDelay, func() {
			s.fetchNext(s.ctx, epoch)
		}))
	case Incorrect:
		r.incorrect[option] = true
		r.penalty = true
		s.cueLocked(CueWrong)
		s.emitLocked(EventState)
		s.afterLocked(time.Duration(res.PenaltySeconds)*time.Second, func() {
			r.penalty = false
			r.gate = false
			s.emitLocked(EventState)
		})
	}
}

func (s *Session) useCheat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.round
	if s.state != StatePlaying || r == nil || r.current == nil || s.quitPending {
		return
	}
	q := r.current
	eligible := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if !r.removed[o] && !r.incorrect[o] {
			eligible = append(eligible, o)
		}
	}
	removed, ok := r.cheat.Invoke(r.gate, eligible, q.CorrectAnswer)
	if !ok {
		return
	}
	for _, o := range removed {
		r.removed[o] = true
	}
	s.log.Debug().Int("removed", len(removed)).Int("remaining", r.clock.Remaining()).Msg("cheat used")
	s.cueLocked(CueCheat)
	s.emitLocked(EventState)
}

func (s *Session) setQuitPending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying || s.quitPending == pending {
		return
	}
	s.quitPending = pending
	s.emitLocked(EventState)
}

// quit leaves the round without finalizing; the exit score ignores penalties.
func (s *Session) quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying || !s.quitPending || s.round == nil {
		return
	}
	r := s.round
	s.stopRoundLocked()
	s.exitScore = r.ledger.Score()
	s.round = nil
	s.quitPending = false
	s.state = StateExit
	s.log.Info().Int("score", s.exitScore).Msg("round quit")
	s.emitScreenLocked()
}

func (s *Session) endRoundLocked(reason string) {
	r := s.round
	s.stopRoundLocked()

	final := r.ledger.Finalize()
	s.summary = &Summary{
		FinalScore:    final,
		Score:         r.ledger.Score(),
		PenaltyPoints: r.ledger.PenaltyPoints(),
		CheatsUsed:    r.cheat.Used(),
		Attempts:      r.history.Attempted(),
		Leaderboard:   s.snapshot,
		AwaitingName:  IsEligible(final, s.snapshot, s.settings.LeaderboardEntries),
	}
	s.round = nil
	s.quitPending = false
	s.state = StateRoundSummary
	s.log.Info().
		Str("reason", reason).
		Int("final_score", final).
		Int("cheats_used", s.summary.CheatsUsed).
		Bool("high_score", s.summary.AwaitingName).
		Msg("round ended")

	s.emitLocked(EventSummary)
	if s.summary.AwaitingName {
		s.emitLocked(EventHighScore)
		return
	}
	s.emitScreenLocked()
}

func (s *Session) saveScore(ctx context.Context, name string) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	if s.state != StateRoundSummary || s.summary == nil || !s.summary.AwaitingName || s.submitting {
		s.mu.Unlock()
		return
	}
	if name == "" {
		s.emitErrorLocked("Please enter your name!")
		s.mu.Unlock()
		return
	}
	s.submitting = true
	score := s.summary.FinalScore
	epoch := s.epoch
	s.emitLocked(EventState)
	s.mu.Unlock()

	var (
		top      []domain.LeaderboardEntry
		fetchErr error
	)
	err := s.board.Submit(ctx, name, score)
	if err == nil {
		top, fetchErr = s.board.FetchTop(ctx, s.settings.LeaderboardEntries)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if epoch != s.epoch || s.summary == nil || s.closed {
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("player", name).Int("score", score).Msg("failed to save score")
		s.emitErrorLocked(fmt.Sprintf("Error! %v.", domain.ErrSubmissionFailed))
		return
	}
	if fetchErr != nil {
		s.log.Warn().Err(fetchErr).Msg("failed to refresh leaderboard")
		s.emitErrorLocked("Could not load scores.")
	} else {
		s.snapshot = top
		s.summary.Leaderboard = top
		s.emitLocked(EventLeaderboard)
	}
	s.summary.AwaitingName = false
	s.emitScreenLocked()
}

func (s *Session) skipScore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRoundSummary || s.summary == nil || !s.summary.AwaitingName || s.submitting {
		return
	}
	s.summary.AwaitingName = false
	s.emitScreenLocked()
}

func (s *Session) toggleSound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	s.emitLocked(EventState)
	if !s.muted && s.state.lobby() {
		s.cueLocked(CueLobby)
	}
}

// retry re-requests a question after a failed fetch.
func (s *Session) retry(ctx context.Context) {
	s.mu.Lock()
	r := s.round
	if s.state != StatePlaying || r == nil || r.current != nil || r.gate || r.fetching {
		s.mu.Unlock()
		return
	}
	epoch := s.epoch
	s.mu.Unlock()

	s.fetchNext(ctx, epoch)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		QuitPending: s.quitPending,
		Submitting:  s.submitting,
		Muted:       s.muted,
		ExitScore:   s.exitScore,
		Leaderboard: s.snapshot,
	}
	if s.state == StateWelcome {
		snap.TimeRemaining = s.settings.GameDuration
	}
	if s.summary != nil {
		sum := *s.summary
		snap.Summary = &sum
	}
	r := s.round
	if r == nil {
		return snap
	}
	snap.Score = r.ledger.Score()
	snap.PenaltyPoints = r.ledger.PenaltyPoints()
	snap.TimeRemaining = r.clock.Remaining()
	snap.CorrectStreak = r.ledger.Streak()
	snap.CheatsUsed = r.cheat.Used()
	snap.InputPaused = r.gate
	if q := r.current; q != nil {
		view := &QuestionView{ID: q.ID, Visual: q.Visual, Options: make([]OptionView, 0, len(q.Options))}
		for _, o := range q.Options {
			removed, incorrect := r.removed[o], r.incorrect[o]
			view.Options = append(view.Options, OptionView{
				Text:      o,
				Removed:   removed,
				Incorrect: incorrect,
				Disabled:  removed || incorrect || r.penalty,
			})
		}
		snap.Question = view
	}
	return snap
}

func (s *Session) emitLocked(t EventType) {
	s.broadcastLocked(Event{Type: t})
}

func (s *Session) emitScreenLocked() {
	s.emitLocked(EventScreen)
	if s.state.lobby() {
		s.cueLocked(CueLobby)
	}
}

func (s *Session) emitErrorLocked(msg string) {
	s.broadcastLocked(Event{Type: EventError, Message: msg})
}

func (s *Session) cueLocked(c Cue) {
	if s.muted {
		return
	}
	s.broadcastLocked(Event{Type: EventCue, Cue: c})
}

func (s *Session) feedbackLocked(msg string, kind FeedbackKind) {
	s.broadcastLocked(Event{
		Type:       EventFeedback,
		Message:    msg,
		Feedback:   kind,
		DurationMs: s.settings.FeedbackDuration.Milliseconds(),
	})
}

func (s *Session) broadcastLocked(ev Event) {
	if len(s.subscribers) == 0 {
		return
	}
	ev.Snapshot = s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// drop the oldest event so a slow reader never blocks the round
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
