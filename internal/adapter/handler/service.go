package handler

import (
	"context"
	"log"

	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
	"github.com/hive-corporation/trustscore/internal/core/domain"
	"github.com/hive-corporation/trustscore/internal/core/ports"
)

// ScoreService runs a trust score computation on behalf of a transport and
// takes care of what follows it: metrics, score history and low score alerts.
// Every call recomputes; the history is never read back.
type ScoreService struct {
	scorer         ports.TrustScorer
	repo           ports.ScoreRepository // Optional
	notifier       ports.Notifier        // Optional
	publisher      ports.ScoreEventPublisher
	alertThreshold float64
}

func NewScoreService(scorer ports.TrustScorer, repo ports.ScoreRepository, notifier ports.Notifier, alertThreshold float64) *ScoreService {
	return &ScoreService{
		scorer:         scorer,
		repo:           repo,
		notifier:       notifier,
		alertThreshold: alertThreshold,
	}
}

// WithPublisher broadcasts every successful computation through p.
func (s *ScoreService) WithPublisher(p ports.ScoreEventPublisher) *ScoreService {
	s.publisher = p
	return s
}

func (s *ScoreService) Score(ctx context.Context, transport, domainName string, limit int) (*domain.TrustScoreResult, error) {
	timer := metrics.StartTimer()
	result, err := s.scorer.Compute(ctx, domainName, limit)
	timer.ObserveDuration()

	if err != nil {
		kind := domain.ErrorKind(err)
		metrics.RecordRequest(transport, "error", kind)
		log.Printf("❌ Trust score for %q failed (%s): %v", domainName, kind, err)
		return nil, err
	}

	metrics.RecordRequest(transport, "success", "")
	metrics.RecordTrustScore(result.TrustScore, result.ReviewsConsumed, result.ReviewCount)
	log.Printf("✅ %s scored %.1f (%d of %d reviews counted)", result.Domain, result.Rounded(), result.ReviewCount, result.ReviewsConsumed)

	if s.repo != nil {
		if err := s.repo.SaveResult(ctx, domain.NewScoreRecord(*result, s.scorer.SourceName())); err != nil {
			log.Printf("⚠️  Failed to record score history for %s: %v", result.Domain, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishScore(scoreEvent(result, s.scorer.SourceName(), transport)); err != nil {
			log.Printf("⚠️  Failed to publish score event for %s: %v", result.Domain, err)
		}
	}

	s.alertIfLow(ctx, result)

	return result, nil
}

func scoreEvent(result *domain.TrustScoreResult, source, transport string) ports.ScoreEvent {
	return ports.ScoreEvent{
		Domain:      result.Domain,
		TrustScore:  result.Rounded(),
		RawScore:    result.RawScore,
		ReviewCount: result.ReviewCount,
		Limit:       result.Limit,
		Source:      source,
		Transport:   transport,
		ComputedAt:  result.ComputedAt,
	}
}

func (s *ScoreService) alertIfLow(ctx context.Context, result *domain.TrustScoreResult) {
	if s.notifier == nil || s.alertThreshold <= 0 {
		return
	}

	score := result.Rounded()
	if score >= s.alertThreshold {
		return
	}

	alert := ports.LowTrustScoreAlert{
		Domain:      result.Domain,
		TrustScore:  score,
		Threshold:   s.alertThreshold,
		ReviewCount: result.ReviewCount,
		Limit:       result.Limit,
		Source:      s.scorer.SourceName(),
	}
	if err := s.notifier.NotifyLowTrustScore(ctx, alert); err != nil {
		log.Printf("⚠️  Failed to send low trust score alert for %s: %v", result.Domain, err)
		return
	}
	log.Printf("📣 Low trust score alert sent for %s (%.1f < %.1f)", result.Domain, score, s.alertThreshold)
}
