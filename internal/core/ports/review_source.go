package ports

import (
	"context"
	"iter"

	"github.com/hive-corporation/trustscore/internal/core/domain"
)

// ReviewSource resolves businesses and streams their reviews, newest first.
//
// FetchReviews yields at most limit reviews, counting every review read whether
// or not it counts toward the score. Errors are yielded once, as the final
// element, and should wrap domain.ErrSourceUnavailable. Retrying failed pages
// is the source's business; callers never retry.
type ReviewSource interface {
	Resolve(ctx context.Context, domainName string) (domain.BusinessUnitID, error)
	FetchReviews(ctx context.Context, unit domain.BusinessUnitID, limit int) iter.Seq2[domain.Review, error]
	Name() string
}
