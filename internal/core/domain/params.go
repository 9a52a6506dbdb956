package domain

import (
	"fmt"
	"math"
)

// DecayParams shapes DateScore. Ages are measured in days.
type DecayParams struct {
	Steepness    float64 // k, per day; smaller is gentler
	MidpointDays float64 // age at which a review weighs 0.5
}

// ThresholdParams shapes the confidence band. Both slopes multiply ln(n+1).
type ThresholdParams struct {
	LowerStart float64
	LowerSlope float64
	UpperStart float64
	UpperSlope float64
}

type ScoringParams struct {
	Decay     DecayParams
	Threshold ThresholdParams
}

// DefaultScoringParams returns the production calibration.
//
// Reviews lose half their weight after six months. Both band bounds start at 6;
// the lower bound is 6 - log2(n+1) and reaches 0 at 63 reviews, the upper bound
// is 6 + ln(n+1) and reaches 10 at 54 reviews.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{
		Decay: DecayParams{
			Steepness:    0.004,
			MidpointDays: 365 * 0.5,
		},
		Threshold: ThresholdParams{
			LowerStart: 6,
			LowerSlope: 1 / math.Ln2,
			UpperStart: 6,
			UpperSlope: 1,
		},
	}
}

func (p ScoringParams) Validate() error {
	d, t := p.Decay, p.Threshold
	switch {
	case !finite(d.Steepness, d.MidpointDays, t.LowerStart, t.LowerSlope, t.UpperStart, t.UpperSlope):
		return fmt.Errorf("scoring parameters must be finite numbers, got %+v", p)
	case !(d.Steepness > 0):
		return fmt.Errorf("decay steepness must be positive, got %v", d.Steepness)
	case d.MidpointDays < 0:
		return fmt.Errorf("decay midpoint must be non-negative, got %v", d.MidpointDays)
	case !inScale(t.LowerStart) || !inScale(t.UpperStart):
		return fmt.Errorf("threshold starts must be within [0, %v], got %v and %v", MaxTrustScore, t.LowerStart, t.UpperStart)
	case t.LowerStart > t.UpperStart:
		return fmt.Errorf("threshold lower start %v is above upper start %v", t.LowerStart, t.UpperStart)
	case !(t.LowerSlope >= 0) || !(t.UpperSlope >= 0):
		return fmt.Errorf("threshold slopes must be non-negative, got %v and %v", t.LowerSlope, t.UpperSlope)
	}
	return nil
}

func inScale(v float64) bool {
	return v >= 0 && v <= MaxTrustScore
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
