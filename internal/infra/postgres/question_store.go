package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-training-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore serves the training pool from Postgres. It sits on the
// read-heavy path, so it uses the pgx pool directly.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) FindByID(ctx context.Context, questionID string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, course_id, prompt, options, points, practice_eligible
		 FROM quiz_questions WHERE id=$1`, questionID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) CountPracticeEligible(ctx context.Context, courseID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM quiz_questions WHERE course_id=$1 AND practice_eligible`,
		courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count practice questions: %w", err)
	}
	return count, nil
}

func (s *QuestionStore) FindDue(ctx context.Context, excludeIDs []string, courseID string, page domain.PageSpec) ([]domain.Question, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, course_id, prompt, options, points, practice_eligible
		 FROM quiz_questions
		 WHERE course_id=$1 AND practice_eligible AND NOT (id = ANY($2))
		 ORDER BY id
		 LIMIT $3 OFFSET $4`,
		courseID, excludeIDs, page.Size, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("query due questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *QuestionStore) FindAllPractice(ctx context.Context, courseID string, page domain.PageSpec) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, course_id, prompt, options, points, practice_eligible
		 FROM quiz_questions
		 WHERE course_id=$1 AND practice_eligible
		 ORDER BY id
		 LIMIT $2 OFFSET $3`,
		courseID, page.Size, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("query practice questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *QuestionStore) HasPracticeEligible(ctx context.Context, courseID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quiz_questions WHERE course_id=$1 AND practice_eligible)`,
		courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check practice questions: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		q       domain.Question
		rawOpts []byte
	)
	if err := row.Scan(&q.ID, &q.CourseID, &q.Prompt, &rawOpts, &q.Points, &q.PracticeEligible); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(rawOpts, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}

func collectQuestions(rows pgx.Rows) ([]domain.Question, error) {
	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}
