package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"quiz-training-service/internal/domain"
)

// DefaultLeagueID is the tier assigned when an entry is first created.
const DefaultLeagueID = 3

// LeaderboardScorer converts mastery state into cumulative scores and
// league-scoped rankings, and fans score updates out to subscribers.
type LeaderboardScorer struct {
	entries LeaderboardStore
	users   UserStore
	courses CourseStore

	mu          sync.Mutex
	subscribers map[string]map[chan domain.ScoreUpdate]struct{}
}

func NewLeaderboardScorer(entries LeaderboardStore, users UserStore, courses CourseStore) *LeaderboardScorer {
	return &LeaderboardScorer{
		entries:     entries,
		users:       users,
		courses:     courses,
		subscribers: make(map[string]map[chan domain.ScoreUpdate]struct{}),
	}
}

// ScoreDelta converts one question's mastery state into leaderboard points.
// Low easiness (a hard question kept alive) is rewarded on top of streak,
// box and session credit.
func ScoreDelta(data domain.ProgressData) int {
	return int(math.Round(data.LastScore*10 +
		float64(data.Repetition)*5 +
		float64(data.Box)*2 +
		float64(data.SessionCount) +
		math.Max(0, 2.5-data.EasinessFactor)*4))
}

// ApplyProgressUpdate adds the summed deltas of the given progress payloads
// to the learner's entry, creating it in the default league on first score.
//
// The read-modify-write is not serialized per (user, course); concurrent
// updates for the same learner can lose a delta. The storage layer owns all
// shared state, so a single-process lock here would not close that gap.
func (l *LeaderboardScorer) ApplyProgressUpdate(ctx context.Context, userID, courseID string, updates ...domain.ProgressData) error {
	delta := 0
	for _, data := range updates {
		delta += ScoreDelta(data)
	}

	entry, err := l.entries.FindByUserAndCourse(ctx, userID, courseID)
	switch {
	case errors.Is(err, domain.ErrLeaderboardEntryNotFound):
		entry = domain.LeaderboardEntry{UserID: userID, CourseID: courseID, LeagueID: DefaultLeagueID}
	case err != nil:
		return fmt.Errorf("load leaderboard entry: %w", err)
	}

	entry.Score += delta
	if err := l.entries.Save(ctx, entry); err != nil {
		return fmt.Errorf("save leaderboard entry: %w", err)
	}

	l.publish(domain.ScoreUpdate{
		UserID:   entry.UserID,
		CourseID: entry.CourseID,
		LeagueID: entry.LeagueID,
		Score:    entry.Score,
	})
	return nil
}

// GetLeague returns the learner's league in a course. Learners without a
// leaderboard entry yet get domain.ErrLeaderboardEntryNotFound.
func (l *LeaderboardScorer) GetLeague(ctx context.Context, userID, courseID string) (int, error) {
	entry, err := l.entries.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	return entry.LeagueID, nil
}

// GetLeaderboard returns the caller's league ranked by score descending with
// dense ranks starting at 1. Order among equal scores is whatever the store
// returns; no tie-break rule is defined.
func (l *LeaderboardScorer) GetLeaderboard(ctx context.Context, userID, courseID string) ([]domain.RankedEntry, error) {
	if _, err := l.courses.FindByID(ctx, courseID); err != nil {
		return nil, err
	}
	if _, err := l.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	leagueID, err := l.GetLeague(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	entries, err := l.entries.FindByLeagueAndCourse(ctx, leagueID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load league entries: %w", err)
	}

	ranked := make([]domain.RankedEntry, 0, len(entries))
	for i, entry := range entries {
		// Entries can outlive their user; fall back to the raw ID then.
		// Anything else from the user store fails the whole request.
		displayName := entry.UserID
		user, err := l.users.FindByID(ctx, entry.UserID)
		switch {
		case err == nil:
			displayName = user.DisplayName
		case !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("resolve display name for %s: %w", entry.UserID, err)
		}
		ranked = append(ranked, domain.RankedEntry{
			Rank:        i + 1,
			LeagueID:    leagueID,
			DisplayName: displayName,
			Score:       entry.Score,
		})
	}
	return ranked, nil
}

// Subscribe returns a channel receiving score updates for a course.
// The caller must invoke the returned cancel function to avoid leaks.
func (l *LeaderboardScorer) Subscribe(courseID string) (<-chan domain.ScoreUpdate, func()) {
	ch := make(chan domain.ScoreUpdate, 8)

	l.mu.Lock()
	if l.subscribers[courseID] == nil {
		l.subscribers[courseID] = make(map[chan domain.ScoreUpdate]struct{})
	}
	l.subscribers[courseID][ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if set, ok := l.subscribers[courseID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(l.subscribers, courseID)
			}
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *LeaderboardScorer) publish(update domain.ScoreUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subscribers[update.CourseID] {
		select {
		case ch <- update:
		default:
			// Drop the oldest buffered update so slow clients never block.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
