package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quiz-training-service/internal/domain"

	"github.com/uptrace/bun"
)

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID          string `bun:"id,pk"`
	DisplayName string `bun:"display_name"`
}

type courseRow struct {
	bun.BaseModel `bun:"table:courses"`

	ID    string `bun:"id,pk"`
	Title string `bun:"title"`
}

// UserStore resolves user identities from Postgres.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByID(ctx context.Context, userID string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return domain.User{ID: row.ID, DisplayName: row.DisplayName}, nil
}

// CourseStore resolves course identities from Postgres.
type CourseStore struct {
	db *bun.DB
}

func NewCourseStore(db *bun.DB) *CourseStore {
	return &CourseStore{db: db}
}

func (s *CourseStore) FindByID(ctx context.Context, courseID string) (domain.Course, error) {
	var row courseRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", courseID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("select course: %w", err)
	}
	return domain.Course{ID: row.ID, Title: row.Title}, nil
}
