package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-training-service/internal/app"
	"quiz-training-service/internal/domain"
	"quiz-training-service/internal/infra/memory"
)

var t0 = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func fixtureQuestions() []domain.Question {
	mk := func(id string) domain.Question {
		return domain.Question{
			ID:       id,
			CourseID: "c1",
			Prompt:   "Select the right option",
			Options: []domain.Option{
				{ID: "wrong", Text: "Wrong"},
				{ID: "right", Text: "Right", Correct: true},
			},
			Points:           1,
			PracticeEligible: true,
		}
	}
	return []domain.Question{mk("q1"), mk("q2"), mk("q3")}
}

type env struct {
	service   *app.TrainingService
	scorer    *app.LeaderboardScorer
	progress  *memory.ProgressStore
	questions *memory.QuestionStore
	board     *memory.LeaderboardStore
}

func newEnv(now func() time.Time) env {
	progress := memory.NewProgressStore()
	questions := memory.NewQuestionStore(fixtureQuestions())
	board := memory.NewLeaderboardStore()
	identities := memory.NewIdentityStore()
	identities.AddUser(domain.User{ID: "u1", DisplayName: "Alice"})
	identities.AddCourse(domain.Course{ID: "c1", Title: "Networks"})
	scorer := app.NewLeaderboardScorer(board, identities, identities.Courses())
	return env{
		service:   app.NewTrainingServiceWithClock(progress, questions, scorer, now),
		scorer:    scorer,
		progress:  progress,
		questions: questions,
		board:     board,
	}
}

func submit(t *testing.T, e env, questionID, optionID string, at time.Time) {
	t.Helper()
	q, err := e.questions.FindByID(context.Background(), questionID)
	if err != nil {
		t.Fatalf("find question: %v", err)
	}
	err = e.service.SubmitAttempt(context.Background(), q, "u1", "c1", domain.AnswerSubmission{
		QuestionID: questionID,
		OptionID:   optionID,
	}, at)
	if err != nil {
		t.Fatalf("submit attempt: %v", err)
	}
}

func record(t *testing.T, e env, questionID string) domain.ProgressRecord {
	t.Helper()
	rec, err := e.progress.FindByUserAndQuestion(context.Background(), "u1", questionID)
	if err != nil {
		t.Fatalf("find progress: %v", err)
	}
	return rec
}

func TestFirstPerfectAttempt(t *testing.T) {
	e := newEnv(func() time.Time { return t0 })

	submit(t, e, "q1", "right", t0)

	rec := record(t, e, "q1")
	data := rec.Data
	if data.Repetition != 1 || data.Interval != 1 || data.Box != 1 || data.SessionCount != 1 {
		t.Fatalf("unexpected state after first perfect attempt: %+v", data)
	}
	if data.LastScore != 1.0 {
		t.Fatalf("expected last score 1.0, got %v", data.LastScore)
	}
	wantDue := t0.AddDate(0, 0, 1)
	if data.DueDate == nil || !data.DueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, data.DueDate)
	}
	if len(data.Attempts) != 1 || !data.Attempts[0].AnsweredAt.Equal(t0) {
		t.Fatalf("expected one logged attempt at t0, got %+v", data.Attempts)
	}
}

func TestSecondPerfectAttemptGrowsInterval(t *testing.T) {
	e := newEnv(func() time.Time { return t0 })

	submit(t, e, "q1", "right", t0)
	submit(t, e, "q1", "right", t0.AddDate(0, 0, 1)) // exactly due

	data := record(t, e, "q1").Data
	if data.Repetition != 2 || data.Interval != 2 || data.Box != 2 || data.SessionCount != 2 {
		t.Fatalf("unexpected state after second perfect attempt: %+v", data)
	}
}

func TestFailedAttemptResetsStreak(t *testing.T) {
	e := newEnv(func() time.Time { return t0 })

	submit(t, e, "q1", "right", t0)
	second := t0.AddDate(0, 0, 1)
	submit(t, e, "q1", "right", second)
	third := second.AddDate(0, 0, 2)
	submit(t, e, "q1", "wrong", third)

	data := record(t, e, "q1").Data
	if data.Repetition != 0 || data.Interval != 0 || data.Box != 1 {
		t.Fatalf("expected reset after failure, got %+v", data)
	}
	if data.DueDate == nil || !data.DueDate.Equal(third) {
		t.Fatalf("expected due immediately at %v, got %v", third, data.DueDate)
	}
	if len(data.Attempts) != 3 {
		t.Fatalf("expected 3 logged attempts, got %d", len(data.Attempts))
	}
	if data.EasinessFactor < 1.3 {
		t.Fatalf("easiness factor below floor: %v", data.EasinessFactor)
	}
}

func TestAttemptBeforeDueDateIsNoOp(t *testing.T) {
	e := newEnv(func() time.Time { return t0 })

	submit(t, e, "q1", "right", t0)
	before := record(t, e, "q1")
	scoreBefore := boardScore(t, e)

	// Due tomorrow; submitting now must change nothing.
	submit(t, e, "q1", "wrong", t0.Add(2*time.Hour))

	after := record(t, e, "q1")
	if len(after.Data.Attempts) != len(before.Data.Attempts) {
		t.Fatalf("attempt was recorded despite guard: %+v", after.Data.Attempts)
	}
	if after.Data.LastScore != before.Data.LastScore ||
		after.Data.SessionCount != before.Data.SessionCount ||
		after.Data.Interval != before.Data.Interval {
		t.Fatalf("state mutated despite guard")
	}
	if got := boardScore(t, e); got != scoreBefore {
		t.Fatalf("leaderboard changed despite guard: %d -> %d", scoreBefore, got)
	}
}

func boardScore(t *testing.T, e env) int {
	t.Helper()
	entry, err := e.board.FindByUserAndCourse(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	return entry.Score
}

// racingProgressStore simulates a concurrent first-time insert winning just
// before ours lands.
type racingProgressStore struct {
	*memory.ProgressStore
	raced bool
}

func (s *racingProgressStore) Insert(ctx context.Context, rec domain.ProgressRecord) error {
	if !s.raced {
		s.raced = true
		competitor := rec
		competitor.Data = domain.ProgressData{EasinessFactor: 2.5, Interval: 1, SessionCount: 1}
		if err := s.ProgressStore.Insert(ctx, competitor); err != nil {
			return err
		}
	}
	return s.ProgressStore.Insert(ctx, rec)
}

func TestConcurrentFirstInsertResolvedAsUpdate(t *testing.T) {
	progress := &racingProgressStore{ProgressStore: memory.NewProgressStore()}
	questions := memory.NewQuestionStore(fixtureQuestions())
	identities := memory.NewIdentityStore()
	identities.AddUser(domain.User{ID: "u1", DisplayName: "Alice"})
	identities.AddCourse(domain.Course{ID: "c1", Title: "Networks"})
	scorer := app.NewLeaderboardScorer(memory.NewLeaderboardStore(), identities, identities.Courses())
	service := app.NewTrainingService(progress, questions, scorer)

	q, _ := questions.FindByID(context.Background(), "q1")
	err := service.SubmitAttempt(context.Background(), q, "u1", "c1", domain.AnswerSubmission{
		QuestionID: "q1", OptionID: "right",
	}, t0)
	if err != nil {
		t.Fatalf("expected race to be resolved silently, got %v", err)
	}

	rec, err := progress.FindByUserAndQuestion(context.Background(), "u1", "q1")
	if err != nil {
		t.Fatalf("find progress: %v", err)
	}
	// The loser's update applied last and overwrote the winner's payload.
	if rec.Data.Repetition != 1 || rec.Data.LastScore != 1.0 {
		t.Fatalf("expected overwritten payload, got %+v", rec.Data)
	}
}

// brokenProgressStore simulates the worst case: a concurrent insert wins
// and the takeover update fails too.
type brokenProgressStore struct {
	*memory.ProgressStore
	finds int
}

func (s *brokenProgressStore) FindByUserAndQuestion(ctx context.Context, userID, questionID string) (domain.ProgressRecord, error) {
	s.finds++
	if s.finds == 1 {
		return domain.ProgressRecord{}, domain.ErrProgressNotFound
	}
	return domain.ProgressRecord{UserID: userID, QuestionID: questionID, CourseID: "c1"}, nil
}

func (s *brokenProgressStore) Insert(context.Context, domain.ProgressRecord) error {
	return domain.ErrDuplicateProgress
}

func (s *brokenProgressStore) Update(context.Context, domain.ProgressRecord) error {
	return errors.New("write failed")
}

func TestUnresolvableConflictIsFatal(t *testing.T) {
	progress := &brokenProgressStore{ProgressStore: memory.NewProgressStore()}
	questions := memory.NewQuestionStore(fixtureQuestions())
	identities := memory.NewIdentityStore()
	scorer := app.NewLeaderboardScorer(memory.NewLeaderboardStore(), identities, identities.Courses())
	service := app.NewTrainingService(progress, questions, scorer)

	q, _ := questions.FindByID(context.Background(), "q1")
	err := service.SubmitAttempt(context.Background(), q, "u1", "c1", domain.AnswerSubmission{
		QuestionID: "q1", OptionID: "right",
	}, t0)
	if !errors.Is(err, domain.ErrProgressConflict) {
		t.Fatalf("expected fatal conflict, got %v", err)
	}
}

func TestScoreNormalization(t *testing.T) {
	e := newEnv(func() time.Time { return t0 })

	// Points zero defaults to max 1; a correct answer still scores fully.
	q := domain.Question{
		ID: "q1", CourseID: "c1",
		Options: []domain.Option{{ID: "right", Correct: true}},
	}
	if err := e.service.SubmitAttempt(context.Background(), q, "u1", "c1", domain.AnswerSubmission{
		QuestionID: "q1", OptionID: "right",
	}, t0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if data := record(t, e, "q1").Data; data.LastScore != 1.0 {
		t.Fatalf("expected normalized score 1.0, got %v", data.LastScore)
	}

	// Non-positive max points normalize to zero.
	q2 := domain.Question{
		ID: "q2", CourseID: "c1", Points: -1,
		Options: []domain.Option{{ID: "right", Correct: true}},
	}
	if err := e.service.SubmitAttempt(context.Background(), q2, "u1", "c1", domain.AnswerSubmission{
		QuestionID: "q2", OptionID: "right",
	}, t0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if data := record(t, e, "q2").Data; data.LastScore != 0 {
		t.Fatalf("expected normalized score 0, got %v", data.LastScore)
	}
}
