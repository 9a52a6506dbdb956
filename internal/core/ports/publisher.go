package ports

import "time"

// ScoreEventPublisher broadcasts computed scores to downstream consumers.
type ScoreEventPublisher interface {
	PublishScore(event ScoreEvent) error
}

type ScoreEvent struct {
	Domain      string    `json:"domain"`
	TrustScore  float64   `json:"trust_score"`
	RawScore    float64   `json:"raw_score"`
	ReviewCount int       `json:"review_count"`
	Limit       int       `json:"limit"`
	Source      string    `json:"source"`
	Transport   string    `json:"transport"`
	ComputedAt  time.Time `json:"computed_at"`
}
