package domain

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestAggregate_Empty(t *testing.T) {
	totals := Aggregate(nil)

	if totals.ContributingCount != 0 || totals.TotalScore != 0 || totals.TotalMaxScore != 0 {
		t.Errorf("expected zero totals, got %+v", totals)
	}
	if raw := totals.RawScore(); raw != 0 {
		t.Errorf("expected raw score 0 for no reviews, got %f", raw)
	}
}

func TestAggregate_Fold(t *testing.T) {
	scored := []ScoredReview{
		{ReviewScore: 0.5, MaxScore: 1},
		{ReviewScore: 0.25, MaxScore: 0.5},
		{ReviewScore: 0, MaxScore: 0.5},
	}

	totals := Aggregate(scored)

	if totals.ContributingCount != 3 {
		t.Errorf("expected count 3, got %d", totals.ContributingCount)
	}
	if math.Abs(totals.TotalScore-0.75) > 1e-9 {
		t.Errorf("expected total 0.75, got %f", totals.TotalScore)
	}
	if math.Abs(totals.TotalMaxScore-2) > 1e-9 {
		t.Errorf("expected max total 2, got %f", totals.TotalMaxScore)
	}
	if raw := totals.RawScore(); math.Abs(raw-3.75) > 1e-9 {
		t.Errorf("expected raw score 3.75, got %f", raw)
	}
}

func TestAggregate_NewerReviewsWeighMore(t *testing.T) {
	p := DefaultScoringParams().Decay
	fresh, _ := ScoreReview(Review{Stars: 5, Age: 0}, p)
	stale, _ := ScoreReview(Review{Stars: 1, Age: 730 * day}, p)

	raw := Aggregate([]ScoredReview{fresh, stale}).RawScore()
	if raw <= 5 {
		t.Errorf("expected a recent 5-star review to outweigh an old 1-star one, got %f", raw)
	}
}

func TestAggregate_RawScoreBounds(t *testing.T) {
	p := DefaultScoringParams().Decay
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		var totals AggregateTotals
		n := 1 + rng.Intn(50)
		for j := 0; j < n; j++ {
			s, err := ScoreReview(Review{
				Stars: 1 + rng.Intn(5),
				Age:   time.Duration(rng.Intn(2000)) * day,
			}, p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			totals.Add(s)
		}

		raw := totals.RawScore()
		if raw < 0 || raw > 10 {
			t.Fatalf("raw score %f outside [0,10] for %d reviews", raw, n)
		}
	}
}

func TestAggregate_AllFiveStarsIsTen(t *testing.T) {
	p := DefaultScoringParams().Decay
	var totals AggregateTotals
	for days := 0; days < 500; days += 7 {
		s, _ := ScoreReview(Review{Stars: 5, Age: time.Duration(days) * day}, p)
		totals.Add(s)
	}

	if raw := totals.RawScore(); raw != 10 {
		t.Errorf("expected raw score 10, got %v", raw)
	}
}
