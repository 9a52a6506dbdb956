package domain

import (
	"math"
	"time"
)

// DefaultLimit is the number of reviews considered when the caller gives no limit.
const DefaultLimit = 300

// BusinessUnitID identifies a business on the review source.
type BusinessUnitID string

type Review struct {
	ID                string        // Identifier on the source, informational only
	Stars             int           // 1..5
	Age               time.Duration // Time elapsed since submission, relative to one "now" per request
	CountsTowardScore bool          // Decided by the source (duplicates, flagged content, ...)
}

type ScoredReview struct {
	StarScore   float64
	DateScore   float64
	ReviewScore float64 // StarScore * DateScore
	MaxScore    float64 // Score a 5-star review of the same age would get
}

type TrustScoreResult struct {
	Domain          string
	Limit           int
	TrustScore      float64 // Clamped, full precision
	RawScore        float64 // Before the confidence clamp
	ReviewCount     int     // Qualifying reviews that were scored
	ReviewsConsumed int     // All reviews read from the source
	Band            ThresholdBand
	BusinessUnitID  BusinessUnitID
	ComputedAt      time.Time
}

// Rounded returns the trust score rounded half-up to one decimal place.
func (r TrustScoreResult) Rounded() float64 {
	return RoundScore(r.TrustScore)
}

// RoundScore rounds a 0..10 score half-up to one decimal place.
func RoundScore(score float64) float64 {
	return math.Floor(score*10+0.5) / 10
}
