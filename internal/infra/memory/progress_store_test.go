package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-training-service/internal/domain"
)

func TestProgressStoreEnforcesPairUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	rec := domain.ProgressRecord{
		UserID:         "u1",
		QuestionID:     "q1",
		CourseID:       "c1",
		LastAnsweredAt: time.Now(),
	}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, rec); !errors.Is(err, domain.ErrDuplicateProgress) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	rec.Data.SessionCount = 1
	if err := store.Update(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.FindByUserAndQuestion(ctx, "u1", "q1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Data.SessionCount != 1 {
		t.Fatalf("expected updated record, got %+v", got.Data)
	}
}

func TestProgressStoreFindAllFiltersByCourse(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	for _, rec := range []domain.ProgressRecord{
		{UserID: "u1", QuestionID: "q1", CourseID: "c1"},
		{UserID: "u1", QuestionID: "q2", CourseID: "c2"},
		{UserID: "u2", QuestionID: "q1", CourseID: "c1"},
	} {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert %+v: %v", rec, err)
		}
	}

	records, err := store.FindAllByUserAndCourse(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(records) != 1 || records[0].QuestionID != "q1" {
		t.Fatalf("expected only u1/c1 record, got %+v", records)
	}
}
