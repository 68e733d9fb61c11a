package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-training-service/internal/domain"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// uniqueViolation is the SQLSTATE Postgres reports on key collisions.
const uniqueViolation = "23505"

type progressRow struct {
	bun.BaseModel `bun:"table:quiz_question_progress"`

	UserID         string              `bun:"user_id,pk"`
	QuestionID     string              `bun:"question_id,pk"`
	CourseID       string              `bun:"course_id"`
	Progress       domain.ProgressData `bun:"progress,type:jsonb"`
	LastAnsweredAt time.Time           `bun:"last_answered_at"`
}

func (r progressRow) toRecord() domain.ProgressRecord {
	return domain.ProgressRecord{
		UserID:         r.UserID,
		QuestionID:     r.QuestionID,
		CourseID:       r.CourseID,
		Data:           r.Progress,
		LastAnsweredAt: r.LastAnsweredAt,
	}
}

func toProgressRow(rec domain.ProgressRecord) progressRow {
	return progressRow{
		UserID:         rec.UserID,
		QuestionID:     rec.QuestionID,
		CourseID:       rec.CourseID,
		Progress:       rec.Data,
		LastAnsweredAt: rec.LastAnsweredAt,
	}
}

// ProgressStore persists mastery records in Postgres. The primary key on
// (user_id, question_id) is the uniqueness invariant the recorder relies on.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) FindByUserAndQuestion(ctx context.Context, userID, questionID string) (domain.ProgressRecord, error) {
	var row progressRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProgressRecord{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.ProgressRecord{}, fmt.Errorf("select progress: %w", err)
	}
	return row.toRecord(), nil
}

func (s *ProgressStore) FindAllByUserAndCourse(ctx context.Context, userID, courseID string) ([]domain.ProgressRecord, error) {
	var rows []progressRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select progress for course: %w", err)
	}
	records := make([]domain.ProgressRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (s *ProgressStore) Insert(ctx context.Context, rec domain.ProgressRecord) error {
	row := toProgressRow(rec)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return domain.ErrDuplicateProgress
		}
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Update(ctx context.Context, rec domain.ProgressRecord) error {
	row := toProgressRow(rec)
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProgressNotFound
	}
	return nil
}
