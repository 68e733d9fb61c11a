package app

import (
	"context"
	"fmt"

	"quiz-training-service/internal/domain"
)

// GetTrainingPage serves one page of questions for a practice session.
//
// On the first call of a session (isNewSession) the exclude set is computed
// from persisted due dates: every question already answered and not yet due
// is excluded. The set and the continuation flag travel with the client and
// come back via excludeIDs/isNewSession on subsequent calls; the server
// holds no cursor.
//
// While some practice-eligible questions are outside the exclude set, pages
// are drawn from those (due or never attempted) and annotated as due. Once
// everything has been attempted and nothing is due, pages fall back to the
// full practice pool, annotated as not due.
func (s *TrainingService) GetTrainingPage(ctx context.Context, courseID, userID string, page domain.PageSpec, excludeIDs []string, isNewSession bool) (domain.TrainingPage, error) {
	if isNewSession {
		records, err := s.progress.FindAllByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return domain.TrainingPage{}, fmt.Errorf("load progress for session start: %w", err)
		}
		now := s.now()
		excludeIDs = excludeIDs[:0:0]
		for _, rec := range records {
			if rec.Data.DueDate != nil && rec.Data.DueDate.After(now) {
				excludeIDs = append(excludeIDs, rec.QuestionID)
			}
		}
	}

	total, err := s.questions.CountPracticeEligible(ctx, courseID)
	if err != nil {
		return domain.TrainingPage{}, fmt.Errorf("count practice questions: %w", err)
	}

	if len(excludeIDs) < total {
		due, err := s.questions.FindDue(ctx, excludeIDs, courseID, page)
		if err != nil {
			return domain.TrainingPage{}, fmt.Errorf("find due questions: %w", err)
		}
		return domain.TrainingPage{
			Questions:   toTrainingQuestions(due, true),
			Due:         true,
			ExcludedIDs: excludeIDs,
			NewSession:  false,
		}, nil
	}

	all, err := s.questions.FindAllPractice(ctx, courseID, page)
	if err != nil {
		return domain.TrainingPage{}, fmt.Errorf("find practice questions: %w", err)
	}
	return domain.TrainingPage{
		Questions:  toTrainingQuestions(all, false),
		Due:        false,
		NewSession: false,
	}, nil
}

// HasQuestionsAvailableForTraining reports whether the course has any
// practice-eligible questions at all, independent of due status.
func (s *TrainingService) HasQuestionsAvailableForTraining(ctx context.Context, courseID string) (bool, error) {
	return s.questions.HasPracticeEligible(ctx, courseID)
}

func toTrainingQuestions(questions []domain.Question, due bool) []domain.QuestionForTraining {
	out := make([]domain.QuestionForTraining, 0, len(questions))
	for _, q := range questions {
		out = append(out, domain.QuestionForTraining{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: withoutSolutions(q.Options),
			Due:     due,
		})
	}
	return out
}

// withoutSolutions strips correctness flags before questions leave the core.
func withoutSolutions(options []domain.Option) []domain.Option {
	out := make([]domain.Option, len(options))
	for i, opt := range options {
		out[i] = domain.Option{ID: opt.ID, Text: opt.Text}
	}
	return out
}
