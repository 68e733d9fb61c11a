// Package srs implements the SM-2-derived mastery math for quiz training.
// All functions are pure; persistence and selection live elsewhere.
package srs

import (
	"math"

	"quiz-training-service/internal/domain"
)

// Defaults applied when no prior progress record exists.
const (
	DefaultEasinessFactor = 2.5
	DefaultInterval       = 1
	MinEasinessFactor     = 1.3
	MaxIntervalDays       = 30
)

// Repetition counts the streak of consecutive perfect attempts ending with
// the current one. Any imperfect score breaks the streak immediately.
// prior is the attempt log before the current attempt, oldest first.
func Repetition(score float64, prior []domain.Attempt) int {
	if score != 1.0 {
		return 0
	}
	streak := 1
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Score != 1.0 {
			break
		}
		streak++
	}
	return streak
}

// EasinessFactor applies the SM-2 update
// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), floored at 1.3.
// score is the normalized [0,1] stand-in for the classical 0-5 quality
// grade, so q = 5*score.
func EasinessFactor(score, previousEF float64) float64 {
	q := 5 * score
	ef := previousEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	return math.Max(MinEasinessFactor, ef)
}

// Interval returns the next review interval in days. The first two
// repetitions use fixed intervals; after that the previous interval grows
// by the easiness factor, capped at MaxIntervalDays.
func Interval(ef float64, previousInterval, repetition int) int {
	switch {
	case repetition < 1:
		return 0
	case repetition == 1:
		return 1
	case repetition == 2:
		return 2
	}
	next := int(math.Round(float64(previousInterval) * ef))
	if next > MaxIntervalDays {
		return MaxIntervalDays
	}
	return next
}

// Priority returns 1 for a learner's very first session on a question when
// the answer was imperfect, and sessionCount+interval otherwise. The two
// branches do not define a single urgency ordering; callers must not sort
// by this value across branches.
func Priority(sessionCount, interval int, score float64) int {
	if sessionCount == 1 && score != 1.0 {
		return 1
	}
	return sessionCount + interval
}

// Box maps an interval to its Leitner bucket.
func Box(interval int) int {
	switch {
	case interval <= 1:
		return 1
	case interval == 2:
		return 2
	case interval <= 4:
		return 3
	case interval <= 7:
		return 4
	case interval <= 15:
		return 5
	default:
		return 6
	}
}
