package ports

import (
	"context"

	"github.com/hive-corporation/trustscore/internal/core/domain"
)

// TrustScorer computes the trust score of a domain from its most recent reviews.
type TrustScorer interface {
	Compute(ctx context.Context, domainName string, limit int) (*domain.TrustScoreResult, error)
	SourceName() string
}
