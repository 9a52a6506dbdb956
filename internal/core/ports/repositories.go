package ports

import (
	"context"
	"errors"

	"github.com/hive-corporation/trustscore/internal/core/domain"
)

// ErrNoHistory is returned by FindLatest when a domain has never been scored.
var ErrNoHistory = errors.New("no score history for domain")

// ScoreRepository keeps an audit history of computed trust scores.
// It is never read back to answer a score request.
type ScoreRepository interface {
	SaveResult(ctx context.Context, record domain.ScoreRecord) error
	SaveBatch(ctx context.Context, records []domain.ScoreRecord) error
	FindLatest(ctx context.Context, domainName string) (*domain.ScoreRecord, error)
	FindHistory(ctx context.Context, domainName string, limit int) ([]domain.ScoreRecord, error)
}
