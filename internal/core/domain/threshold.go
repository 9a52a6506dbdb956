package domain

import "math"

// ThresholdBand is the range a raw score is clamped into for a given review count.
type ThresholdBand struct {
	Lower float64
	Upper float64
}

// Band returns the confidence band for n contributing reviews. Both bounds
// follow logarithmic curves in n+1, so the band widens as reviews accumulate
// and saturates at [0, 10].
func Band(n int, p ThresholdParams) ThresholdBand {
	if n < 0 {
		n = 0
	}
	ln := math.Log(float64(n) + 1)

	lower := math.Max(0, p.LowerStart-p.LowerSlope*ln)
	upper := math.Min(MaxTrustScore, p.UpperStart+p.UpperSlope*ln)
	if lower > upper {
		lower = upper
	}
	return ThresholdBand{Lower: lower, Upper: upper}
}

func (b ThresholdBand) Clamp(score float64) float64 {
	switch {
	case score < b.Lower:
		return b.Lower
	case score > b.Upper:
		return b.Upper
	default:
		return score
	}
}

// ConfidenceClamp keeps a score computed from n reviews inside Band(n).
func ConfidenceClamp(raw float64, n int, p ThresholdParams) float64 {
	return Band(n, p).Clamp(raw)
}
