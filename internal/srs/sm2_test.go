package srs

import (
	"math"
	"testing"
	"time"

	"quiz-training-service/internal/domain"
)

func attempts(scores ...float64) []domain.Attempt {
	out := make([]domain.Attempt, 0, len(scores))
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, s := range scores {
		out = append(out, domain.Attempt{Score: s, AnsweredAt: at.AddDate(0, 0, i)})
	}
	return out
}

func TestRepetitionResetsOnImperfectScore(t *testing.T) {
	for _, score := range []float64{0, 0.25, 0.5, 0.999} {
		if got := Repetition(score, attempts(1, 1, 1)); got != 0 {
			t.Fatalf("score %v: expected repetition 0, got %d", score, got)
		}
	}
}

func TestRepetitionCountsTrailingPerfectStreak(t *testing.T) {
	cases := []struct {
		prior []domain.Attempt
		want  int
	}{
		{nil, 1},
		{attempts(1), 2},
		{attempts(0.5, 1, 1), 3},
		{attempts(1, 0, 1), 2},
		{attempts(0), 1},
		{attempts(1, 1, 1, 1), 5},
	}
	for _, tc := range cases {
		if got := Repetition(1.0, tc.prior); got != tc.want {
			t.Fatalf("prior %v: expected %d, got %d", tc.prior, tc.want, got)
		}
	}
}

func TestEasinessFactorFormula(t *testing.T) {
	// Perfect answer adds 0.1.
	if got := EasinessFactor(1.0, 2.5); math.Abs(got-2.6) > 1e-9 {
		t.Fatalf("expected 2.6, got %v", got)
	}
	// q=4 (score 0.8): EF + (0.1 - 1*(0.08+0.02)) = EF.
	if got := EasinessFactor(0.8, 2.5); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("expected 2.5, got %v", got)
	}
}

func TestEasinessFactorNeverBelowFloor(t *testing.T) {
	for _, score := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0} {
		for _, prev := range []float64{1.3, 1.5, 2.5} {
			if got := EasinessFactor(score, prev); got < MinEasinessFactor {
				t.Fatalf("score=%v prev=%v: EF %v below floor", score, prev, got)
			}
		}
	}
}

func TestIntervalTable(t *testing.T) {
	if got := Interval(2.5, 10, 0); got != 0 {
		t.Fatalf("repetition 0: expected 0, got %d", got)
	}
	if got := Interval(2.5, 10, 1); got != 1 {
		t.Fatalf("repetition 1: expected 1, got %d", got)
	}
	if got := Interval(2.5, 10, 2); got != 2 {
		t.Fatalf("repetition 2: expected 2, got %d", got)
	}
	// round(2 * 2.5) = 5
	if got := Interval(2.5, 2, 3); got != 5 {
		t.Fatalf("repetition 3: expected 5, got %d", got)
	}
	// round(5 * 2.6) = 13
	if got := Interval(2.6, 5, 4); got != 13 {
		t.Fatalf("repetition 4: expected 13, got %d", got)
	}
	// cap at 30
	if got := Interval(2.5, 20, 5); got != 30 {
		t.Fatalf("expected cap at 30, got %d", got)
	}
}

func TestBoxStepTable(t *testing.T) {
	for interval := 0; interval <= 40; interval++ {
		want := 6
		switch {
		case interval <= 1:
			want = 1
		case interval == 2:
			want = 2
		case interval <= 4:
			want = 3
		case interval <= 7:
			want = 4
		case interval <= 15:
			want = 5
		}
		if got := Box(interval); got != want {
			t.Fatalf("interval %d: expected box %d, got %d", interval, want, got)
		}
	}
}

// Priority has two branches with different intents: a constant 1 for a
// first-session miss, a growing sum otherwise. The branches do not define
// one consistent ordering (a first-session miss can rank "better" than a
// long-mastered question), so this test only pins each branch's value.
func TestPriorityBranches(t *testing.T) {
	if got := Priority(1, 0, 0.5); got != 1 {
		t.Fatalf("first-session miss: expected 1, got %d", got)
	}
	if got := Priority(1, 1, 1.0); got != 2 {
		t.Fatalf("first-session perfect: expected 2, got %d", got)
	}
	if got := Priority(4, 6, 0.0); got != 10 {
		t.Fatalf("later session: expected 10, got %d", got)
	}
}
