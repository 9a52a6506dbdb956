package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hive-corporation/trustscore/internal/adapter/handler"
	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
	"github.com/hive-corporation/trustscore/internal/adapter/notifier"
	"github.com/hive-corporation/trustscore/internal/adapter/publisher"
	"github.com/hive-corporation/trustscore/internal/adapter/repository"
	"github.com/hive-corporation/trustscore/internal/config"
	"github.com/hive-corporation/trustscore/internal/core/domain"
	"github.com/hive-corporation/trustscore/internal/core/engine"
	"github.com/hive-corporation/trustscore/internal/core/ports"
)

const (
	batchSize    = 100
	flushTimeout = 10 * time.Second
)

type refresher struct {
	service *handler.ScoreService
	source  string
	repo    ports.ScoreRepository // Optional
	workers int
	limit   int
}

func main() {
	domainsFile := flag.String("file", "domains.txt", "File with one domain per line")
	limit := flag.Int("limit", domain.DefaultLimit, "Number of recent reviews to consider")
	schedule := flag.String("schedule", "", "Cron expression to refresh on (default: REFRESH_SCHEDULE, empty runs once)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if *schedule == "" {
		*schedule = cfg.RefreshSchedule
	}

	var repo ports.ScoreRepository
	if cfg.DatabaseURL != "" {
		log.Println("🔌 Database connection...")
		dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Error connecting to database: %v", err)
		}
		defer dbPool.Close()

		pg := repository.NewPostgresRepository(dbPool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("❌ Error preparing score history: %v", err)
		}
		repo = pg
	} else {
		log.Println("⚠️  DATABASE_URL not set. Scores will be logged but not saved.")
	}

	var alerts ports.Notifier
	if cfg.Slack.BotToken != "" {
		alerts = notifier.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel, cfg.Slack.MentionTeam)
	}

	metrics.InitMetrics()

	scorer := engine.New(cfg.NewReviewSource(), cfg.Scoring)
	// History is written in batches by the refresher, not per computation
	service := handler.NewScoreService(scorer, nil, alerts, cfg.AlertThreshold)

	if cfg.NATS.URL != "" {
		events, err := publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Token, cfg.NATS.Subject)
		if err != nil {
			log.Fatalf("❌ Failed to connect to NATS: %v", err)
		}
		defer events.Close()
		service.WithPublisher(events)
	}

	r := &refresher{
		service: service,
		source:  scorer.SourceName(),
		repo:    repo,
		workers: cfg.RefreshWorkers,
		limit:   *limit,
	}

	runOnce := func() {
		domains, err := readDomains(*domainsFile)
		if err != nil {
			log.Printf("❌ %v", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		r.run(ctx, domains)
	}

	if *schedule == "" {
		runOnce()
		return
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(*schedule, runOnce); err != nil {
		log.Fatalf("❌ Invalid refresh schedule %q: %v", *schedule, err)
	}
	c.Start()
	log.Printf("⏰ Refresher scheduled (%s)", *schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Stopping scheduler, waiting for a running refresh...")
	<-c.Stop().Done()
}

// run scores domains with a bounded worker pool and saves the results in batches.
func (r *refresher) run(ctx context.Context, domains []string) {
	jobs := make(chan string)
	records := make(chan domain.ScoreRecord, batchSize)
	var wg sync.WaitGroup

	log.Printf("🚀 Refreshing %d domains with %d workers...", len(domains), r.workers)
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				result, err := r.service.Score(ctx, "refresher", d, r.limit)
				if err != nil {
					continue
				}
				select {
				case records <- domain.NewScoreRecord(*result, r.source):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, d := range domains {
			select {
			case jobs <- d:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(records)
		log.Println("🔒 All domains scored. Channel closed.")
	}()

	var batch []domain.ScoreRecord
	totalSaved := 0
	scored := 0

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		if r.repo != nil {
			// Scored records are saved even when the run was cancelled or timed out
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
			err := r.repo.SaveBatch(saveCtx, batch)
			cancel()
			if err != nil {
				log.Printf("❌ Error saving batch (%s): %v", reason, err)
				batch = nil
				return
			}
			totalSaved += len(batch)
			log.Printf("📦 Batch saved (%s): %d scores (Total: %d)", reason, len(batch), totalSaved)
		}
		batch = nil
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

Loop:
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				break Loop
			}
			scored++
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush("size")
			}

		case <-ticker.C:
			flush("ticker")
		}
	}

	flush("final")

	log.Printf("🏁 Refresh finished! %d of %d domains scored, %d saved", scored, len(domains), totalSaved)
}

func readDomains(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading domain list: %w", err)
	}
	defer file.Close()

	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading domain list: %w", err)
	}

	return domains, nil
}
