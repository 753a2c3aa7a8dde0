package game

// Outcome is the result of a single answer attempt.
type Outcome int

const (
	Correct Outcome = iota + 1
	Incorrect
)

func (o Outcome) String() string {
	switch o {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// TimeAdjuster receives streak bonus time. *Clock implements it.
type TimeAdjuster interface {
	Adjust(deltaSeconds int)
}

// AttemptResult tells the caller what else happened besides the outcome.
type AttemptResult struct {
	Outcome Outcome
	// BonusSeconds is non-zero when this answer completed a streak.
	BonusSeconds int
	// PenaltySeconds is how long answer options stay disabled after a miss.
	PenaltySeconds int
}

// Ledger keeps score, penalties and the streak for one round.
// Penalties never decrement score; they are netted out by Finalize.
type Ledger struct {
	settings Settings
	clock    TimeAdjuster
	history  *History

	score         int
	penaltyPoints int
	streak        int

	finalized  bool
	finalScore int
}

func NewLedger(settings Settings, clock TimeAdjuster, history *History) *Ledger {
	return &Ledger{settings: settings, clock: clock, history: history}
}

// RecordAttempt scores chosen against correctAnswer for questionID.
func (l *Ledger) RecordAttempt(questionID, chosen, correctAnswer string) AttemptResult {
	correct := chosen == correctAnswer
	l.history.attempt(questionID, correct)

	if !correct {
		l.penaltyPoints += l.settings.PenaltyPerWrongPoints
		l.streak = 0
		return AttemptResult{Outcome: Incorrect, PenaltySeconds: l.settings.PenaltyPerWrongSeconds}
	}

	l.score += l.settings.PointsPerAnswer
	l.streak++
	res := AttemptResult{Outcome: Correct}
	if l.streak == l.settings.StreakRequirement {
		l.clock.Adjust(l.settings.StreakBonus)
		l.streak = 0
		res.BonusSeconds = l.settings.StreakBonus
	}
	return res
}

// Finalize returns max(0, score - penaltyPoints). The first call freezes the value.
func (l *Ledger) Finalize() int {
	if l.finalized {
		return l.finalScore
	}
	l.finalScore = max(0, l.score-l.penaltyPoints)
	l.finalized = true
	return l.finalScore
}

func (l *Ledger) Score() int         { return l.score }
func (l *Ledger) PenaltyPoints() int { return l.penaltyPoints }
func (l *Ledger) Streak() int        { return l.streak }
