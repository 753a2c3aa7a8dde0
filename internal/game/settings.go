package game

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"timed-quiz-service/internal/domain"
)

const (
	DefaultSettleDelay       = 200 * time.Millisecond
	DefaultNextQuestionDelay = 800 * time.Millisecond
	DefaultFeedbackDuration  = 1500 * time.Millisecond
	DefaultWarningSeconds    = 5
)

// Settings are the immutable rules of a round. They are loaded once at
// startup and shared by every session.
type Settings struct {
	GameDuration           int `json:"gameDuration" validate:"gt=0"`
	PointsPerAnswer        int `json:"pointsPerAnswer" validate:"gt=0"`
	StreakRequirement      int `json:"streakRequirement" validate:"gt=0"`
	StreakBonus            int `json:"streakBonus" validate:"gt=0"`
	PenaltyPerWrongPoints  int `json:"penaltyPerWrongPoints" validate:"gte=0"`
	PenaltyPerWrongSeconds int `json:"penaltyPerWrongSeconds" validate:"gte=0"`
	CheatCost              int `json:"cheatCost" validate:"gte=0"`
	CheatAnswersRemoved    int `json:"cheatAnswersRemoved" validate:"gte=0"`
	LeaderboardEntries     int `json:"leaderboardEntries" validate:"gt=0"`

	// WarningSeconds is the remaining time at which the end cue plays; zero disables it.
	WarningSeconds    int               `json:"warningSeconds" validate:"gte=0"`
	SettleDelay       time.Duration     `json:"-" validate:"gte=0"`
	NextQuestionDelay time.Duration     `json:"-" validate:"gte=0"`
	FeedbackDuration  time.Duration     `json:"-" validate:"gte=0"`
	Sounds            map[string]string `json:"sounds,omitempty"`
}

var settingsValidator = validator.New()

// Validate checks every rule is in range. The error wraps domain.ErrConfigInvalid.
func (s Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	return nil
}

// WithDefaultTimings fills unset delays with the stock values.
func (s Settings) WithDefaultTimings() Settings {
	if s.SettleDelay == 0 {
		s.SettleDelay = DefaultSettleDelay
	}
	if s.NextQuestionDelay == 0 {
		s.NextQuestionDelay = DefaultNextQuestionDelay
	}
	if s.FeedbackDuration == 0 {
		s.FeedbackDuration = DefaultFeedbackDuration
	}
	return s
}
