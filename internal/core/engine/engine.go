// Package engine computes trust scores from the reviews of a review source.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hive-corporation/trustscore/internal/core/domain"
	"github.com/hive-corporation/trustscore/internal/core/ports"
)

type Engine struct {
	source ports.ReviewSource
	params domain.ScoringParams
	now    func() time.Time
}

func New(source ports.ReviewSource, params domain.ScoringParams) *Engine {
	return &Engine{
		source: source,
		params: params,
		now:    time.Now,
	}
}

// SourceName returns the name of the review source behind this engine.
func (e *Engine) SourceName() string {
	return e.source.Name()
}

// Compute scores the last limit reviews of domainName.
//
// Every review read from the source counts against limit; only those the
// source marks as counting toward the score are aggregated. Any failure
// aborts the computation, no partial score is returned.
func (e *Engine) Compute(ctx context.Context, domainName string, limit int) (*domain.TrustScoreResult, error) {
	domainName = strings.TrimSpace(domainName)
	if domainName == "" {
		return nil, fmt.Errorf("%w: domain is required", domain.ErrInvalidDomain)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d is not a positive number of reviews", domain.ErrInvalidLimit, limit)
	}

	unit, err := e.source.Resolve(ctx, domainName)
	if err != nil {
		return nil, sourceError(err, "resolve "+domainName)
	}

	var (
		totals   domain.AggregateTotals
		consumed int
	)
	for review, err := range e.source.FetchReviews(ctx, unit, limit) {
		if err != nil {
			return nil, sourceError(err, "fetch reviews for "+domainName)
		}
		consumed++

		if review.CountsTowardScore {
			scored, err := domain.ScoreReview(review, e.params.Decay)
			if err != nil {
				return nil, fmt.Errorf("review %q of %s: %w", review.ID, domainName, err)
			}
			totals.Add(scored)
		}

		if consumed >= limit {
			break
		}
	}

	raw := totals.RawScore()
	band := domain.Band(totals.ContributingCount, e.params.Threshold)

	return &domain.TrustScoreResult{
		Domain:          domainName,
		Limit:           limit,
		TrustScore:      band.Clamp(raw),
		RawScore:        raw,
		ReviewCount:     totals.ContributingCount,
		ReviewsConsumed: consumed,
		Band:            band,
		BusinessUnitID:  unit,
		ComputedAt:      e.now().UTC(),
	}, nil
}

// sourceError keeps taxonomy errors intact and files anything else the
// source returns under ErrSourceUnavailable.
func sourceError(err error, op string) error {
	if domain.IsKnown(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrSourceUnavailable, err)
}
