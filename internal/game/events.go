package game

import "timed-quiz-service/internal/domain"

// State is the active screen of a session.
type State string

const (
	StateWelcome      State = "welcome"
	StatePlaying      State = "playing"
	StateRoundSummary State = "round_summary"
	StateExit         State = "exit"
)

// lobby screens play the looping lobby cue.
func (s State) lobby() bool {
	return s == StateWelcome || s == StateRoundSummary || s == StateExit
}

// IntentType enumerates the user actions a session accepts.
type IntentType string

const (
	IntentStart       IntentType = "start"
	IntentAnswer      IntentType = "answer"
	IntentCheat       IntentType = "cheat"
	IntentQuit        IntentType = "quit"
	IntentQuitConfirm IntentType = "quitConfirm"
	IntentQuitCancel  IntentType = "quitCancel"
	IntentSaveScore   IntentType = "saveScore"
	IntentSkipScore   IntentType = "skipScore"
	IntentPlayAgain   IntentType = "playAgain"
	IntentToggleSound IntentType = "toggleSound"
	IntentRetry       IntentType = "retry"
)

// Intent is a user action. Option is set for IntentAnswer, PlayerName for IntentSaveScore.
type Intent struct {
	Type       IntentType `json:"type"`
	Option     string     `json:"option,omitempty"`
	PlayerName string     `json:"playerName,omitempty"`
}

// Cue names a sound the presentation layer should play.
type Cue string

const (
	CueStart   Cue = "start"
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
	CueBonus   Cue = "bonus"
	CueCheat   Cue = "cheat"
	CueEnd     Cue = "end"
	CueLobby   Cue = "lobby"
)

// EventType tags what changed.
type EventType string

const (
	EventScreen      EventType = "screen"
	EventState       EventType = "state"
	EventTick        EventType = "tick"
	EventQuestion    EventType = "question"
	EventFeedback    EventType = "feedback"
	EventCue         EventType = "cue"
	EventSummary     EventType = "summary"
	EventHighScore   EventType = "highscore"
	EventLeaderboard EventType = "leaderboard"
	EventError       EventType = "error"
)

// FeedbackKind styles a feedback message.
type FeedbackKind string

const (
	FeedbackCorrect FeedbackKind = "correct"
	FeedbackBonus   FeedbackKind = "bonus"
)

// Event is pushed to subscribers after every change. Snapshot is always the
// full view at the time of the event.
type Event struct {
	Type       EventType    `json:"type"`
	Snapshot   Snapshot     `json:"snapshot"`
	Message    string       `json:"message,omitempty"`
	Cue        Cue          `json:"cue,omitempty"`
	Feedback   FeedbackKind `json:"feedback,omitempty"`
	DurationMs int64        `json:"durationMs,omitempty"`
}

// OptionView is an answer button as the player should see it.
type OptionView struct {
	Text      string `json:"text"`
	Disabled  bool   `json:"disabled"`
	Removed   bool   `json:"removed"`
	Incorrect bool   `json:"incorrect"`
}

// QuestionView hides the correct answer.
type QuestionView struct {
	ID      string       `json:"id"`
	Visual  string       `json:"visual"`
	Options []OptionView `json:"options"`
}

// Summary is the end-of-round report.
type Summary struct {
	FinalScore    int                       `json:"finalScore"`
	Score         int                       `json:"score"`
	PenaltyPoints int                       `json:"penaltyPoints"`
	CheatsUsed    int                       `json:"cheatsUsed"`
	Attempts      []domain.Attempt          `json:"attempts"`
	Leaderboard   []domain.LeaderboardEntry `json:"leaderboard"`
	// AwaitingName is set while the high score prompt is open.
	AwaitingName bool `json:"awaitingName"`
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	State         State                     `json:"state"`
	Score         int                       `json:"score"`
	PenaltyPoints int                       `json:"penaltyPoints"`
	TimeRemaining int                       `json:"timeRemaining"`
	CorrectStreak int                       `json:"correctStreak"`
	CheatsUsed    int                       `json:"cheatsUsed"`
	Question      *QuestionView             `json:"question,omitempty"`
	InputPaused   bool                      `json:"inputPaused"`
	QuitPending   bool                      `json:"quitPending"`
	Submitting    bool                      `json:"submitting"`
	Muted         bool                      `json:"muted"`
	ExitScore     int                       `json:"exitScore"`
	Summary       *Summary                  `json:"summary,omitempty"`
	Leaderboard   []domain.LeaderboardEntry `json:"leaderboard"`
}
