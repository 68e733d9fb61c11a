package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-training-service/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardStore.
// Entries with equal scores keep their creation order; no tie-break rule is
// promised by the interface.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[string]domain.LeaderboardEntry
	order   []string
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{entries: make(map[string]domain.LeaderboardEntry)}
}

func (s *LeaderboardStore) FindByUserAndCourse(_ context.Context, userID, courseID string) (domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryKey(userID, courseID)]
	if !ok {
		return domain.LeaderboardEntry{}, domain.ErrLeaderboardEntryNotFound
	}
	return entry, nil
}

func (s *LeaderboardStore) FindByLeagueAndCourse(_ context.Context, leagueID int, courseID string) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LeaderboardEntry
	for _, key := range s.order {
		entry := s.entries[key]
		if entry.LeagueID == leagueID && entry.CourseID == courseID {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *LeaderboardStore) Save(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey(entry.UserID, entry.CourseID)
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = entry
	return nil
}

func entryKey(userID, courseID string) string {
	return userID + "/" + courseID
}
