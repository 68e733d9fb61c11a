package domain

import "time"

// Attempt is one scored answer for a question. Attempts are append-only;
// insertion order is significant for the repetition streak.
type Attempt struct {
	Score      float64   `json:"score"` // normalized to [0,1]
	AnsweredAt time.Time `json:"answeredAt"`
}

// ProgressData is the evolving mastery payload for one user+question pair.
type ProgressData struct {
	Attempts       []Attempt  `json:"attempts"`
	LastScore      float64    `json:"lastScore"`
	Repetition     int        `json:"repetition"`
	EasinessFactor float64    `json:"easinessFactor"`
	Interval       int        `json:"interval"` // days
	SessionCount   int        `json:"sessionCount"`
	Box            int        `json:"box"`
	Priority       int        `json:"priority"`
	DueDate        *time.Time `json:"dueDate"`
}

// ProgressRecord ties ProgressData to its (user, question) identity.
// At most one record exists per pair; the storage layer enforces this
// and the recorder resolves violations.
type ProgressRecord struct {
	UserID         string
	QuestionID     string
	CourseID       string
	Data           ProgressData
	LastAnsweredAt time.Time
}

// LeaderboardEntry is a learner's cumulative training score within a course.
// Score only grows through this core's logic.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	CourseID string `json:"courseId"`
	LeagueID int    `json:"leagueId"`
	Score    int    `json:"score"`
}

// RankedEntry is a leaderboard row as served to clients.
type RankedEntry struct {
	Rank        int    `json:"rank"`
	LeagueID    int    `json:"leagueId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// ScoreUpdate is published to leaderboard subscribers after a score change.
type ScoreUpdate struct {
	UserID   string `json:"userId"`
	CourseID string `json:"courseId"`
	LeagueID int    `json:"leagueId"`
	Score    int    `json:"score"`
}

// User is the identity view this core needs (display name for rankings).
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Course groups questions into a training pool.
type Course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
// Other question kinds only need to satisfy Scorable.
type Question struct {
	ID               string   `json:"id"`
	CourseID         string   `json:"courseId"`
	Prompt           string   `json:"prompt"`
	Options          []Option `json:"options"`
	Points           float64  `json:"points"` // defaults to 1 if zero
	PracticeEligible bool     `json:"practiceEligible"`
}

// AnswerSubmission models the raw answer from clients.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// PageSpec is caller-supplied offset/size pagination. There is no
// server-held cursor; continuation state travels with the client.
type PageSpec struct {
	Offset int
	Size   int
}

// QuestionForTraining is the per-question view served in a training page.
type QuestionForTraining struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Due     bool     `json:"due"`
}

// TrainingPage is one finite page of questions for a practice session.
// ExcludedIDs and NewSession are carried back to the client so it can
// pass them on the next call.
type TrainingPage struct {
	Questions   []QuestionForTraining `json:"questions"`
	Due         bool                  `json:"due"`
	ExcludedIDs []string              `json:"excludedIds,omitempty"`
	NewSession  bool                  `json:"newSession"`
}
