package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quiz-training-service/internal/domain"

	"github.com/uptrace/bun"
)

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard_entries"`

	UserID   string `bun:"user_id,pk"`
	CourseID string `bun:"course_id,pk"`
	LeagueID int    `bun:"league_id"`
	Score    int    `bun:"score"`
}

func (r leaderboardRow) toEntry() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:   r.UserID,
		CourseID: r.CourseID,
		LeagueID: r.LeagueID,
		Score:    r.Score,
	}
}

// LeaderboardStore persists cumulative training scores in Postgres.
type LeaderboardStore struct {
	db *bun.DB
}

func NewLeaderboardStore(db *bun.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) FindByUserAndCourse(ctx context.Context, userID, courseID string) (domain.LeaderboardEntry, error) {
	var row leaderboardRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LeaderboardEntry{}, domain.ErrLeaderboardEntryNotFound
	}
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("select leaderboard entry: %w", err)
	}
	return row.toEntry(), nil
}

// FindByLeagueAndCourse orders by score descending only; tie order is
// whatever Postgres yields.
func (s *LeaderboardStore) FindByLeagueAndCourse(ctx context.Context, leagueID int, courseID string) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	err := s.db.NewSelect().Model(&rows).
		Where("league_id = ?", leagueID).
		Where("course_id = ?", courseID).
		Order("score DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select league: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

func (s *LeaderboardStore) Save(ctx context.Context, entry domain.LeaderboardEntry) error {
	row := leaderboardRow{
		UserID:   entry.UserID,
		CourseID: entry.CourseID,
		LeagueID: entry.LeagueID,
		Score:    entry.Score,
	}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (user_id, course_id) DO UPDATE").
		Set("league_id = EXCLUDED.league_id").
		Set("score = EXCLUDED.score").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}
