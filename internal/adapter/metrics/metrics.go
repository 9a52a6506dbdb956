package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// requestsTotal tracks trust score requests by transport, status and error kind
	requestsTotal *prometheus.CounterVec

	// computeDuration tracks latency of a full computation, source calls included
	computeDuration prometheus.Histogram

	// trustScoreValue tracks the distribution of returned trust scores
	trustScoreValue prometheus.Histogram

	// reviewsConsumedTotal tracks reviews read from the source, split by qualifying
	reviewsConsumedTotal *prometheus.CounterVec

	// sourceErrorsTotal tracks review source errors by type
	sourceErrorsTotal *prometheus.CounterVec

	// historyWritesTotal tracks score history writes by status
	historyWritesTotal *prometheus.CounterVec
)

// InitMetrics registers all Prometheus metrics for trust score computation
// This should be called once at application startup
func InitMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trustscore_requests_total",
				Help: "Total number of trust score requests by transport, status and error kind",
			},
			[]string{"transport", "status", "kind"},
		)

		computeDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trustscore_compute_duration_seconds",
				Help:    "Duration of trust score computations in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		)

		trustScoreValue = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trustscore_value",
				Help:    "Distribution of computed trust scores (0-10)",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
		)

		reviewsConsumedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trustscore_reviews_consumed_total",
				Help: "Total number of reviews read from the review source",
			},
			[]string{"qualifying"},
		)

		sourceErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trustscore_source_errors_total",
				Help: "Total number of review source errors by error type",
			},
			[]string{"error_type"},
		)

		historyWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trustscore_history_writes_total",
				Help: "Total number of score history writes by status",
			},
			[]string{"status"},
		)
	})
}

// RecordRequest records a finished request
// transport: "rest", "grpc", "refresher"
// status: "success", "error"
// kind: error kind, empty on success
func RecordRequest(transport, status, kind string) {
	if requestsTotal != nil {
		requestsTotal.WithLabelValues(transport, status, kind).Inc()
	}
}

// RecordComputeDuration records the duration of a computation
func RecordComputeDuration(duration time.Duration) {
	if computeDuration != nil {
		computeDuration.Observe(duration.Seconds())
	}
}

// RecordTrustScore records a computed score and the reviews behind it
func RecordTrustScore(score float64, consumed, qualifying int) {
	if trustScoreValue != nil {
		trustScoreValue.Observe(score)
	}
	if reviewsConsumedTotal != nil {
		reviewsConsumedTotal.WithLabelValues("true").Add(float64(qualifying))
		reviewsConsumedTotal.WithLabelValues("false").Add(float64(consumed - qualifying))
	}
}

// RecordSourceError records a review source error by type
// errorType: "timeout", "auth", "rate_limit", "server_error", "connection", "not_found", "decode", "circuit_open"
func RecordSourceError(errorType string) {
	if sourceErrorsTotal != nil {
		sourceErrorsTotal.WithLabelValues(errorType).Inc()
	}
}

// RecordHistoryWrite records a score history write
func RecordHistoryWrite(status string) {
	if historyWritesTotal != nil {
		historyWritesTotal.WithLabelValues(status).Inc()
	}
}

// ComputeTimer is a helper for timing computations
type ComputeTimer struct {
	start time.Time
}

// StartTimer creates a new timer for measuring computation duration
func StartTimer() *ComputeTimer {
	return &ComputeTimer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started
func (t *ComputeTimer) ObserveDuration() {
	if t != nil {
		RecordComputeDuration(time.Since(t.start))
	}
}

// NewServer exposes the registered collectors on addr under /metrics, for
// binaries that have no REST router to mount promhttp on.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
