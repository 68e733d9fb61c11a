package memory

import (
	"context"
	"sync"

	"quiz-training-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. It
// enforces the same (user, question) uniqueness signal as the Postgres
// store so the recorder's conflict path behaves identically in tests.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressRecord
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[string]domain.ProgressRecord)}
}

func (s *ProgressStore) FindByUserAndQuestion(_ context.Context, userID, questionID string) (domain.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[progressKey(userID, questionID)]
	if !ok {
		return domain.ProgressRecord{}, domain.ErrProgressNotFound
	}
	return rec, nil
}

func (s *ProgressStore) FindAllByUserAndCourse(_ context.Context, userID, courseID string) ([]domain.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ProgressRecord
	for _, rec := range s.records {
		if rec.UserID == userID && rec.CourseID == courseID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *ProgressStore) Insert(_ context.Context, rec domain.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey(rec.UserID, rec.QuestionID)
	if _, ok := s.records[key]; ok {
		return domain.ErrDuplicateProgress
	}
	s.records[key] = rec
	return nil
}

func (s *ProgressStore) Update(_ context.Context, rec domain.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey(rec.UserID, rec.QuestionID)
	if _, ok := s.records[key]; !ok {
		return domain.ErrProgressNotFound
	}
	s.records[key] = rec
	return nil
}

func progressKey(userID, questionID string) string {
	return userID + "/" + questionID
}
