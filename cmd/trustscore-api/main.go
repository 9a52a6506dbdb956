package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/hive-corporation/trustscore/internal/adapter/handler"
	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
	"github.com/hive-corporation/trustscore/internal/adapter/notifier"
	"github.com/hive-corporation/trustscore/internal/adapter/publisher"
	"github.com/hive-corporation/trustscore/internal/adapter/repository"
	"github.com/hive-corporation/trustscore/internal/config"
	"github.com/hive-corporation/trustscore/internal/core/engine"
	"github.com/hive-corporation/trustscore/internal/core/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Score history (optional - only if DATABASE_URL configured)
	var history ports.ScoreRepository
	if cfg.DatabaseURL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer dbPool.Close()

		repo := repository.NewPostgresRepository(dbPool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("❌ Failed to prepare score history: %v", err)
		}
		history = repo
		log.Println("✅ Score history enabled")
	} else {
		log.Println("⚠️  Score history disabled (no DATABASE_URL)")
	}

	// Slack notifier (optional - only if token configured)
	var alerts ports.Notifier
	if cfg.Slack.BotToken != "" {
		alerts = notifier.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel, cfg.Slack.MentionTeam)
		log.Println("✅ Slack notifier enabled")
	} else {
		log.Println("⚠️  Slack notifier disabled (no SLACK_BOT_TOKEN)")
	}

	metrics.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	scorer := engine.New(cfg.NewReviewSource(), cfg.Scoring)
	service := handler.NewScoreService(scorer, history, alerts, cfg.AlertThreshold)

	// Score events (optional - only if NATS_URL configured)
	if cfg.NATS.URL != "" {
		events, err := publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Token, cfg.NATS.Subject)
		if err != nil {
			log.Fatalf("❌ Failed to connect to NATS: %v", err)
		}
		defer events.Close()
		service.WithPublisher(events)
		log.Printf("✅ Score events enabled on %s", cfg.NATS.Subject)
	}
	router := handler.NewRouter(handler.NewRestHandler(service, history), cfg.RESTAuthToken)

	srv := &http.Server{
		Addr:         ":" + cfg.RESTPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("🚀 Trust score REST API listening on port %s (source: %s)", cfg.RESTPort, scorer.SourceName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
