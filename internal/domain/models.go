package domain

// Title is one catalog entry a question can be built from.
type Title struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Visual string `json:"visual"`
}

// Question is a single visual trivia question. Options contain the correct
// answer plus distractors in presentation order.
type Question struct {
	ID            string   `json:"id"`
	Visual        string   `json:"visual"`
	CorrectAnswer string   `json:"correctAnswer"`
	Options       []string `json:"options"`
}

// HasOption reports whether option is one of the question's answers.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Attempt is the per-question history kept for a round.
type Attempt struct {
	QuestionID        string `json:"questionId"`
	CorrectAnswer     string `json:"correctAnswer"`
	Tries             int    `json:"tries"`
	AnsweredCorrectly bool   `json:"answeredCorrectly"`
}

// LeaderboardEntry is a single saved score.
type LeaderboardEntry struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}
