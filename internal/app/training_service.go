package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-training-service/internal/domain"
	"quiz-training-service/internal/srs"
)

// ProgressStore persists per-(user, question) mastery records. Insert must
// fail with domain.ErrDuplicateProgress when a record for the pair already
// exists (in-memory, Postgres unique constraint, etc).
type ProgressStore interface {
	FindByUserAndQuestion(ctx context.Context, userID, questionID string) (domain.ProgressRecord, error)
	FindAllByUserAndCourse(ctx context.Context, userID, courseID string) ([]domain.ProgressRecord, error)
	Insert(ctx context.Context, rec domain.ProgressRecord) error
	Update(ctx context.Context, rec domain.ProgressRecord) error
}

// QuestionStore serves a course's training pool.
type QuestionStore interface {
	FindByID(ctx context.Context, questionID string) (domain.Question, error)
	CountPracticeEligible(ctx context.Context, courseID string) (int, error)
	FindDue(ctx context.Context, excludeIDs []string, courseID string, page domain.PageSpec) ([]domain.Question, error)
	FindAllPractice(ctx context.Context, courseID string, page domain.PageSpec) ([]domain.Question, error)
	HasPracticeEligible(ctx context.Context, courseID string) (bool, error)
}

// LeaderboardStore persists cumulative training scores. FindByLeagueAndCourse
// returns entries ordered by score descending; the order among equal scores
// is whatever the store yields.
type LeaderboardStore interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (domain.LeaderboardEntry, error)
	FindByLeagueAndCourse(ctx context.Context, leagueID int, courseID string) ([]domain.LeaderboardEntry, error)
	Save(ctx context.Context, entry domain.LeaderboardEntry) error
}

// UserStore resolves user identities.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (domain.User, error)
}

// CourseStore resolves course identities.
type CourseStore interface {
	FindByID(ctx context.Context, courseID string) (domain.Course, error)
}

// TrainingService contains the practice-scheduling use cases: recording
// attempts and selecting the next page of questions.
type TrainingService struct {
	progress  ProgressStore
	questions QuestionStore
	scorer    *LeaderboardScorer
	now       func() time.Time
}

func NewTrainingService(progress ProgressStore, questions QuestionStore, scorer *LeaderboardScorer) *TrainingService {
	return NewTrainingServiceWithClock(progress, questions, scorer, time.Now)
}

// NewTrainingServiceWithClock allows deterministic timestamps in tests.
func NewTrainingServiceWithClock(progress ProgressStore, questions QuestionStore, scorer *LeaderboardScorer, now func() time.Time) *TrainingService {
	return &TrainingService{progress: progress, questions: questions, scorer: scorer, now: now}
}

// SubmitAttempt records one answered question and updates the learner's
// mastery state and leaderboard score.
//
// The call is a no-op when the question is not yet due. A lost race on the
// first-time insert is resolved by re-fetching the winning record and
// overwriting it; only a failure of that fallback surfaces, as
// domain.ErrProgressConflict.
func (s *TrainingService) SubmitAttempt(ctx context.Context, question domain.Scorable, userID, courseID string, answer domain.AnswerSubmission, answeredAt time.Time) error {
	rec, err := s.progress.FindByUserAndQuestion(ctx, userID, question.QuestionID())
	exists := true
	switch {
	case errors.Is(err, domain.ErrProgressNotFound):
		exists = false
		rec = domain.ProgressRecord{
			UserID:     userID,
			QuestionID: question.QuestionID(),
			CourseID:   courseID,
			Data: domain.ProgressData{
				EasinessFactor: srs.DefaultEasinessFactor,
				Interval:       srs.DefaultInterval,
			},
		}
	case err != nil:
		return fmt.Errorf("load progress: %w", err)
	}

	if exists && rec.Data.DueDate != nil && rec.Data.DueDate.After(answeredAt) {
		// Not due yet: nothing is recorded, nothing changes.
		return nil
	}

	rec.Data = nextProgress(rec.Data, normalizedScore(question, answer), answeredAt)
	rec.LastAnsweredAt = answeredAt

	if exists {
		if err := s.progress.Update(ctx, rec); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	} else if err := s.progress.Insert(ctx, rec); err != nil {
		if !errors.Is(err, domain.ErrDuplicateProgress) {
			return fmt.Errorf("insert progress: %w", err)
		}
		// A concurrent first-time insert won. Take over the existing row
		// with the values just computed.
		current, ferr := s.progress.FindByUserAndQuestion(ctx, userID, question.QuestionID())
		if ferr != nil {
			return fmt.Errorf("%w: refetch after duplicate insert: %v", domain.ErrProgressConflict, ferr)
		}
		current.Data = rec.Data
		current.LastAnsweredAt = answeredAt
		if uerr := s.progress.Update(ctx, current); uerr != nil {
			return fmt.Errorf("%w: %v", domain.ErrProgressConflict, uerr)
		}
	}

	return s.scorer.ApplyProgressUpdate(ctx, userID, courseID, rec.Data)
}

// normalizedScore maps awarded points into [0,1].
func normalizedScore(question domain.Scorable, answer domain.AnswerSubmission) float64 {
	max := question.MaxPoints()
	if max <= 0 {
		return 0
	}
	return question.ScoreForAnswer(answer) / max
}

// nextProgress derives the full mastery payload for one new attempt from the
// previous persisted state (defaults pre-filled for first attempts).
func nextProgress(prev domain.ProgressData, score float64, answeredAt time.Time) domain.ProgressData {
	repetition := srs.Repetition(score, prev.Attempts)
	ef := srs.EasinessFactor(score, prev.EasinessFactor)
	sessionCount := prev.SessionCount + 1
	interval := srs.Interval(ef, prev.Interval, repetition)
	due := answeredAt.AddDate(0, 0, interval)

	attempts := make([]domain.Attempt, 0, len(prev.Attempts)+1)
	attempts = append(attempts, prev.Attempts...)
	attempts = append(attempts, domain.Attempt{Score: score, AnsweredAt: answeredAt})

	return domain.ProgressData{
		Attempts:       attempts,
		LastScore:      score,
		Repetition:     repetition,
		EasinessFactor: ef,
		Interval:       interval,
		SessionCount:   sessionCount,
		Box:            srs.Box(interval),
		Priority:       srs.Priority(sessionCount, interval, score),
		DueDate:        &due,
	}
}
