// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hive-corporation/trustscore/internal/adapter/provider"
	"github.com/hive-corporation/trustscore/internal/adapter/publisher"
	"github.com/hive-corporation/trustscore/internal/core/domain"
)

type Config struct {
	RESTPort       string
	GRPCListenAddr string
	MetricsAddr    string // /metrics listener of the gRPC server; empty disables it
	DatabaseURL    string // Empty disables score history
	RESTAuthToken  string // Empty disables REST auth

	Trustpilot TrustpilotConfig
	Resilience provider.ResilientClientConfig
	Slack      SlackConfig
	NATS       NATSConfig

	AlertThreshold  float64 // Scores below it are notified; 0 disables alerts
	RefreshWorkers  int
	RefreshSchedule string // Cron expression; empty runs the refresher once

	Scoring domain.ScoringParams
}

type TrustpilotConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type NATSConfig struct {
	URL     string // Empty disables score events
	Token   string
	Subject string
}

type SlackConfig struct {
	BotToken    string // Empty disables the notifier
	Channel     string
	MentionTeam string
}

// Load builds a Config from environment variables. Malformed numbers fall back
// to their defaults; a scoring calibration that does not validate is an error.
func Load() (*Config, error) {
	defaults := provider.DefaultResilientClientConfig()
	scoring := domain.DefaultScoringParams()

	cfg := &Config{
		RESTPort:       getEnv("REST_API_PORT", "8080"),
		GRPCListenAddr: getEnv("GRPC_LISTEN_ADDR", "localhost:50051"),
		MetricsAddr:    getEnv("METRICS_LISTEN_ADDR", "localhost:9091"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RESTAuthToken:  os.Getenv("REST_API_AUTH_TOKEN"),

		Trustpilot: TrustpilotConfig{
			APIKey:  os.Getenv("TRUSTPILOT_API_KEY"),
			BaseURL: getEnv("TRUSTPILOT_BASE_URL", provider.DefaultTrustpilotBaseURL),
			Timeout: time.Duration(getEnvInt("SOURCE_TIMEOUT_SECONDS", 30)) * time.Second,
		},

		Resilience: provider.ResilientClientConfig{
			EnableCircuitBreaker: getEnvBool("SOURCE_CIRCUIT_BREAKER_ENABLED", defaults.EnableCircuitBreaker),
			MaxFailures:          uint32(getEnvInt("SOURCE_CIRCUIT_BREAKER_MAX_FAILURES", int(defaults.MaxFailures))),
			CircuitTimeout:       time.Duration(getEnvInt("SOURCE_CIRCUIT_BREAKER_TIMEOUT_SECONDS", int(defaults.CircuitTimeout/time.Second))) * time.Second,
			MaxRetries:           getEnvInt("SOURCE_RETRY_MAX_ATTEMPTS", defaults.MaxRetries),
			InitialInterval:      time.Duration(getEnvInt("SOURCE_RETRY_INITIAL_INTERVAL_MS", int(defaults.InitialInterval/time.Millisecond))) * time.Millisecond,
			MaxInterval:          time.Duration(getEnvInt("SOURCE_RETRY_MAX_INTERVAL_MS", int(defaults.MaxInterval/time.Millisecond))) * time.Millisecond,
		},

		Slack: SlackConfig{
			BotToken:    os.Getenv("SLACK_BOT_TOKEN"),
			Channel:     getEnv("SLACK_CHANNEL_TRUST", "#trust-alerts"),
			MentionTeam: os.Getenv("SLACK_MENTION_TEAM"),
		},

		NATS: NATSConfig{
			URL:     os.Getenv("NATS_URL"),
			Token:   os.Getenv("NATS_TOKEN"),
			Subject: getEnv("NATS_SUBJECT", publisher.DefaultSubject),
		},

		AlertThreshold:  getEnvFloat("TRUST_ALERT_THRESHOLD", 0),
		RefreshWorkers:  getEnvInt("REFRESH_WORKERS", 4),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),

		Scoring: domain.ScoringParams{
			Decay: domain.DecayParams{
				Steepness:    getEnvFloat("DECAY_STEEPNESS", scoring.Decay.Steepness),
				MidpointDays: getEnvFloat("DECAY_MIDPOINT_DAYS", scoring.Decay.MidpointDays),
			},
			Threshold: domain.ThresholdParams{
				LowerStart: getEnvFloat("THRESHOLD_LOWER_START", scoring.Threshold.LowerStart),
				LowerSlope: getEnvFloat("THRESHOLD_LOWER_SLOPE", scoring.Threshold.LowerSlope),
				UpperStart: getEnvFloat("THRESHOLD_UPPER_START", scoring.Threshold.UpperStart),
				UpperSlope: getEnvFloat("THRESHOLD_UPPER_SLOPE", scoring.Threshold.UpperSlope),
			},
		},
	}

	if cfg.RefreshWorkers < 1 {
		cfg.RefreshWorkers = 1
	}
	if cfg.Resilience.MaxRetries < 0 {
		cfg.Resilience.MaxRetries = 0
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring calibration: %w", err)
	}

	return cfg, nil
}

// NewReviewSource builds the Trustpilot review source described by cfg.
func (c *Config) NewReviewSource() *provider.TrustpilotProvider {
	client := provider.NewResilientClient(c.Trustpilot.Timeout, c.Resilience)
	return provider.NewTrustpilotProvider(client, c.Trustpilot.BaseURL, c.Trustpilot.APIKey)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
