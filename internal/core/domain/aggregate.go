package domain

// MaxTrustScore is the top of the trust score scale.
const MaxTrustScore = 10.0

// AggregateTotals is the running state of the fold over scored reviews.
type AggregateTotals struct {
	TotalScore        float64
	TotalMaxScore     float64
	ContributingCount int
}

func (t *AggregateTotals) Add(s ScoredReview) {
	t.TotalScore += s.ReviewScore
	t.TotalMaxScore += s.MaxScore
	t.ContributingCount++
}

// RawScore scales the ratio of observed to attainable score onto 0..10.
// An empty aggregate scores 0.
func (t AggregateTotals) RawScore() float64 {
	if t.ContributingCount == 0 || t.TotalMaxScore <= 0 {
		return 0
	}
	raw := MaxTrustScore * t.TotalScore / t.TotalMaxScore
	if raw > MaxTrustScore {
		// float rounding when every review is 5 stars
		return MaxTrustScore
	}
	return raw
}

func Aggregate(scored []ScoredReview) AggregateTotals {
	var t AggregateTotals
	for _, s := range scored {
		t.Add(s)
	}
	return t
}
