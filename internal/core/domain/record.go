package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScoreRecord is a computed trust score as kept in the score history.
type ScoreRecord struct {
	ID             uuid.UUID
	Domain         string
	BusinessUnitID BusinessUnitID
	Limit          int
	TrustScore     float64
	RawScore       float64
	ReviewCount    int
	Source         string
	ComputedAt     time.Time
}

// NewScoreRecord captures result for the history, tagged with the source it came from.
func NewScoreRecord(result TrustScoreResult, source string) ScoreRecord {
	return ScoreRecord{
		ID:             uuid.New(),
		Domain:         result.Domain,
		BusinessUnitID: result.BusinessUnitID,
		Limit:          result.Limit,
		TrustScore:     result.TrustScore,
		RawScore:       result.RawScore,
		ReviewCount:    result.ReviewCount,
		Source:         source,
		ComputedAt:     result.ComputedAt,
	}
}
