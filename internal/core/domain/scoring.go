package domain

import (
	"fmt"
	"math"
	"time"
)

// maxDecayExponent caps the logistic exponent so very old reviews keep a small
// but strictly positive weight instead of underflowing to zero.
const maxDecayExponent = 700.0

// StarScore maps a 1..5 star rating linearly onto [0,1]: 1 star is 0, 5 stars is 1.
func StarScore(stars int) (float64, error) {
	if stars < 1 || stars > 5 {
		return 0, fmt.Errorf("%w: %d stars", ErrInvalidRating, stars)
	}
	return float64(stars-1) / 4, nil
}

// AgeDays returns the number of whole days in age.
func AgeDays(age time.Duration) float64 {
	return math.Floor(age.Hours() / 24)
}

// DateScore returns the decay weight of a review of the given age.
//
// The weight follows a reversed logistic curve over the age in whole days:
//
//	1 / (1 + e^(k * (days - midpoint)))
//
// so it is 0.5 at the midpoint, approaches 1 for new reviews and 0 for old ones.
func DateScore(age time.Duration, p DecayParams) (float64, error) {
	if age < 0 {
		return 0, fmt.Errorf("%w: %s in the future", ErrInvalidAge, -age)
	}

	x := p.Steepness * (AgeDays(age) - p.MidpointDays)
	if x > maxDecayExponent {
		x = maxDecayExponent
	}
	return 1 / (1 + math.Exp(x)), nil
}

// ScoreReview weighs a qualifying review by its age. MaxScore is what a
// 5-star review of the same age would have scored.
func ScoreReview(r Review, p DecayParams) (ScoredReview, error) {
	stars, err := StarScore(r.Stars)
	if err != nil {
		return ScoredReview{}, err
	}
	date, err := DateScore(r.Age, p)
	if err != nil {
		return ScoredReview{}, err
	}

	return ScoredReview{
		StarScore:   stars,
		DateScore:   date,
		ReviewScore: stars * date,
		MaxScore:    date,
	}, nil
}
