package memory

import (
	"context"
	"sync"

	"quiz-training-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore backed
// by a static question list (useful for tests and the no-database mode).
// Questions keep their insertion order, which makes pagination stable.
type QuestionStore struct {
	mu        sync.RWMutex
	questions []domain.Question
}

func NewQuestionStore(questions []domain.Question) *QuestionStore {
	return &QuestionStore{questions: questions}
}

func (s *QuestionStore) FindByID(_ context.Context, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *QuestionStore) CountPracticeEligible(_ context.Context, courseID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, q := range s.questions {
		if q.CourseID == courseID && q.PracticeEligible {
			count++
		}
	}
	return count, nil
}

func (s *QuestionStore) FindDue(_ context.Context, excludeIDs []string, courseID string, page domain.PageSpec) ([]domain.Question, error) {
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var pool []domain.Question
	for _, q := range s.questions {
		if q.CourseID != courseID || !q.PracticeEligible {
			continue
		}
		if _, skip := excluded[q.ID]; skip {
			continue
		}
		pool = append(pool, q)
	}
	return paginate(pool, page), nil
}

func (s *QuestionStore) FindAllPractice(_ context.Context, courseID string, page domain.PageSpec) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pool []domain.Question
	for _, q := range s.questions {
		if q.CourseID == courseID && q.PracticeEligible {
			pool = append(pool, q)
		}
	}
	return paginate(pool, page), nil
}

func (s *QuestionStore) HasPracticeEligible(ctx context.Context, courseID string) (bool, error) {
	count, err := s.CountPracticeEligible(ctx, courseID)
	return count > 0, err
}

func paginate(pool []domain.Question, page domain.PageSpec) []domain.Question {
	if page.Offset >= len(pool) || page.Size <= 0 {
		return nil
	}
	end := page.Offset + page.Size
	if end > len(pool) {
		end = len(pool)
	}
	return pool[page.Offset:end]
}
