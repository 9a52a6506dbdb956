package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
)

// ErrCircuitOpen is returned while the circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ResilientClient wraps an HTTP client with circuit breaker and retry logic
type ResilientClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	config  ResilientClientConfig
}

// ResilientClientConfig holds configuration for the resilient client
type ResilientClientConfig struct {
	// Circuit breaker settings
	EnableCircuitBreaker bool
	MaxFailures          uint32
	CircuitTimeout       time.Duration

	// Retry settings
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultResilientClientConfig returns default configuration values
func DefaultResilientClientConfig() ResilientClientConfig {
	return ResilientClientConfig{
		EnableCircuitBreaker: true,
		MaxFailures:          5,
		CircuitTimeout:       30 * time.Second,
		MaxRetries:           3,
		InitialInterval:      500 * time.Millisecond,
		MaxInterval:          5 * time.Second,
	}
}

// NewResilientClient creates a new resilient HTTP client
func NewResilientClient(timeout time.Duration, config ResilientClientConfig) *ResilientClient {
	client := &http.Client{
		Timeout: timeout,
	}

	var breaker *gobreaker.CircuitBreaker
	if config.EnableCircuitBreaker {
		settings := gobreaker.Settings{
			Name:        "review-source",
			MaxRequests: 1,
			Interval:    0, // Don't reset counts automatically
			Timeout:     config.CircuitTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.MaxFailures
			},
			IsSuccessful: upstreamHealthy,
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Printf("⚡ Circuit breaker '%s' changed from %s to %s", name, from, to)
				if to == gobreaker.StateOpen {
					metrics.RecordSourceError("circuit_open")
				}
			},
		}
		breaker = gobreaker.NewCircuitBreaker(settings)
	}

	return &ResilientClient{
		client:  client,
		breaker: breaker,
		config:  config,
	}
}

// upstreamHealthy decides whether an outcome counts against the breaker.
// Client errors such as an unknown business unit say nothing about the
// health of the source, so only transport errors, 429 and 5xx do.
func upstreamHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500 && statusErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// Do executes an HTTP request with circuit breaker and retry logic.
// Non-2xx responses are closed and reported as *StatusError.
func (c *ResilientClient) Do(req *http.Request) (*http.Response, error) {
	// If circuit breaker is disabled, just do the request with retry
	if c.breaker == nil {
		return c.doWithRetry(req)
	}

	// Execute through circuit breaker
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(req)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordSourceError("circuit_open")
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return nil, err
	}

	return result.(*http.Response), nil
}

// doWithRetry executes an HTTP request with exponential backoff retry logic
func (c *ResilientClient) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	// Configure exponential backoff
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.config.InitialInterval
	expBackoff.MaxInterval = c.config.MaxInterval
	expBackoff.Multiplier = 2.0
	expBackoff.MaxElapsedTime = 0 // No max elapsed time, only max retries

	retries := c.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	ctx := req.Context()
	retryBackoff := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(retries)), ctx)

	operation := func() error {
		attempt := req.Clone(ctx)
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to rewind request body: %w", err))
			}
			attempt.Body = body
		}

		var err error
		resp, err = c.client.Do(attempt)
		if err != nil {
			lastErr = err
			metrics.RecordSourceError(classifyTransportError(err))
			if c.shouldRetry(err, nil) {
				return err // Retry
			}
			return backoff.Permanent(err) // Don't retry
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = &StatusError{StatusCode: resp.StatusCode}
			c.recordErrorFromResponse(resp)
			retry := c.shouldRetry(nil, resp)
			resp.Body.Close()
			resp = nil
			if retry {
				return lastErr
			}
			return backoff.Permanent(lastErr) // Don't retry 4xx
		}

		return nil
	}

	if err := backoff.Retry(operation, retryBackoff); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("request failed after retries: %w", lastErr)
	}

	return resp, nil
}

// shouldRetry determines if an error or response should trigger a retry
func (c *ResilientClient) shouldRetry(err error, resp *http.Response) bool {
	// Retry on network errors or timeouts
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		msg := err.Error()
		return strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "connection reset") ||
			strings.Contains(msg, "EOF")
	}

	// Retry on specific HTTP status codes
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusTooManyRequests, // 429
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
			http.StatusBadGateway,          // 502
			http.StatusInternalServerError: // 500
			return true
		}
	}

	return false
}

func classifyTransportError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return "timeout"
	}
	return "connection"
}

// recordErrorFromResponse records the appropriate error metric based on response status
func (c *ResilientClient) recordErrorFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		metrics.RecordSourceError("auth")
	case http.StatusNotFound:
		metrics.RecordSourceError("not_found")
	case http.StatusTooManyRequests:
		metrics.RecordSourceError("rate_limit")
	case http.StatusRequestTimeout:
		metrics.RecordSourceError("timeout")
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		metrics.RecordSourceError("server_error")
	default:
		metrics.RecordSourceError("http_error")
	}
}
