//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/trustscore/internal/core/domain"
	"github.com/hive-corporation/trustscore/internal/core/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo
}

func testRecord(domainName string, score float64, at time.Time) domain.ScoreRecord {
	return domain.ScoreRecord{
		ID:             uuid.New(),
		Domain:         domainName,
		BusinessUnitID: "bu-test",
		Limit:          300,
		TrustScore:     score,
		RawScore:       score,
		ReviewCount:    12,
		Source:         "test",
		ComputedAt:     at.UTC().Truncate(time.Microsecond),
	}
}

func TestPostgresRepository_SaveAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	domainName := "it-" + uuid.NewString() + ".test"
	now := time.Now()

	if err := repo.SaveResult(ctx, testRecord(domainName, 4.2, now.Add(-time.Hour))); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	latest := testRecord(domainName, 7.9, now)
	if err := repo.SaveBatch(ctx, []domain.ScoreRecord{latest, testRecord(domainName, 5.5, now.Add(-2*time.Hour))}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, err := repo.FindLatest(ctx, domainName)
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if got.ID != latest.ID || got.TrustScore != 7.9 || got.BusinessUnitID != "bu-test" {
		t.Errorf("unexpected latest record %+v", got)
	}

	history, err := repo.FindHistory(ctx, domainName, 2)
	if err != nil {
		t.Fatalf("FindHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].TrustScore != 7.9 || history[1].TrustScore != 4.2 {
		t.Errorf("expected newest first, got %v then %v", history[0].TrustScore, history[1].TrustScore)
	}
}

func TestPostgresRepository_FindLatestMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindLatest(context.Background(), "missing-"+uuid.NewString()+".test")
	if !errors.Is(err, ports.ErrNoHistory) {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
}

func TestPostgresRepository_SaveBatchEmpty(t *testing.T) {
	repo := newTestRepository(t)

	if err := repo.SaveBatch(context.Background(), nil); err != nil {
		t.Errorf("expected no error for empty batch, got %v", err)
	}
}
