package ports

import "context"

// Notifier defines the interface for sending notifications to external systems
type Notifier interface {
	// NotifyLowTrustScore alerts on a domain whose score fell below the alert threshold
	NotifyLowTrustScore(ctx context.Context, alert LowTrustScoreAlert) error
}

type LowTrustScoreAlert struct {
	Domain      string
	TrustScore  float64
	Threshold   float64
	ReviewCount int
	Limit       int
	Source      string
}
