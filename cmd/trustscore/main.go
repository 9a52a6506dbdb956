package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

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

	var history ports.ScoreRepository
	if cfg.DatabaseURL != "" {
		dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer dbPool.Close()

		repo := repository.NewPostgresRepository(dbPool)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("❌ Failed to prepare score history: %v", err)
		}
		history = repo
	}

	var alerts ports.Notifier
	if cfg.Slack.BotToken != "" {
		alerts = notifier.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel, cfg.Slack.MentionTeam)
	}

	metrics.InitMetrics()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr)
		go func() {
			log.Printf("📊 Metrics listening on %s/metrics", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("❌ Metrics server failed: %v", err)
			}
		}()
	}

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

	grpcHandler := handler.NewGrpcServer(service)

	// Listen address defaults to localhost only
	lis, err := net.Listen("tcp", cfg.GRPCListenAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	s := grpc.NewServer()

	handler.RegisterTrustScoreServer(s, grpcHandler)

	reflection.Register(s)

	go func() {
		log.Printf("🚀 Trust score gRPC API listening on %s\n", cfg.GRPCListenAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	s.GracefulStop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Printf("⚠️  Metrics server shutdown: %v", err)
		}
	}
}
