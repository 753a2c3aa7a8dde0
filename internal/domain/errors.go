package domain

import "errors"

var (
	// ErrConfigInvalid is returned when game settings are missing or out of range.
	ErrConfigInvalid = errors.New("game config invalid")
	// ErrProviderUnavailable wraps question or leaderboard fetch failures.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrQuestionsExhausted signals that every question has been seen this round.
	ErrQuestionsExhausted = errors.New("no more questions available")
	// ErrSubmissionFailed indicates a score could not be saved.
	ErrSubmissionFailed = errors.New("score submission failed")
	// ErrInvalidSubmission indicates a score submission with no name or a negative score.
	ErrInvalidSubmission = errors.New("invalid score submission")
	// ErrSessionNotFound is returned when a game session id is unknown.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionClosed is returned when intents arrive after a session was closed.
	ErrSessionClosed = errors.New("game session closed")
	// ErrUnknownIntent indicates an intent type the session does not handle.
	ErrUnknownIntent = errors.New("unknown intent")
)
