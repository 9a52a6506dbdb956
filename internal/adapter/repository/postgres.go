package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
	"github.com/hive-corporation/trustscore/internal/core/domain"
	"github.com/hive-corporation/trustscore/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS trust_scores (
		id               UUID PRIMARY KEY,
		domain           TEXT NOT NULL,
		business_unit_id TEXT NOT NULL,
		review_limit     INTEGER NOT NULL,
		trust_score      DOUBLE PRECISION NOT NULL,
		raw_score        DOUBLE PRECISION NOT NULL,
		review_count     INTEGER NOT NULL,
		source           TEXT NOT NULL,
		computed_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS trust_scores_domain_computed_at
		ON trust_scores (domain, computed_at DESC);
`

const insertScore = `
	INSERT INTO trust_scores (id, domain, business_unit_id, review_limit, trust_score, raw_score, review_count, source, computed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
`

const selectColumns = `id, domain, business_unit_id, review_limit, trust_score, raw_score, review_count, source, computed_at`

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the trust_scores table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveResult(ctx context.Context, record domain.ScoreRecord) error {
	_, err := r.db.Exec(ctx, insertScore, recordArgs(record)...)
	if err != nil {
		metrics.RecordHistoryWrite("error")
		return fmt.Errorf("failed to save score for %s: %w", record.Domain, err)
	}
	metrics.RecordHistoryWrite("success")
	return nil
}

func (r *PostgresRepository) SaveBatch(ctx context.Context, records []domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(insertScore, recordArgs(record)...)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			metrics.RecordHistoryWrite("error")
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	metrics.RecordHistoryWrite("success")
	return nil
}

// FindLatest returns the most recent score of domainName, or ports.ErrNoHistory.
func (r *PostgresRepository) FindLatest(ctx context.Context, domainName string) (*domain.ScoreRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM trust_scores
		WHERE domain = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`

	record, err := scanRecord(r.db.QueryRow(ctx, query, domainName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ports.ErrNoHistory, domainName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest score: %w", err)
	}

	return &record, nil
}

// FindHistory returns up to limit scores of domainName, newest first.
func (r *PostgresRepository) FindHistory(ctx context.Context, domainName string, limit int) ([]domain.ScoreRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM trust_scores
		WHERE domain = $1
		ORDER BY computed_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, domainName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

func recordArgs(record domain.ScoreRecord) []any {
	return []any{
		record.ID,
		record.Domain,
		string(record.BusinessUnitID),
		record.Limit,
		record.TrustScore,
		record.RawScore,
		record.ReviewCount,
		record.Source,
		record.ComputedAt,
	}
}

func scanRecord(row pgx.Row) (domain.ScoreRecord, error) {
	var record domain.ScoreRecord
	var unit string

	err := row.Scan(
		&record.ID,
		&record.Domain,
		&unit,
		&record.Limit,
		&record.TrustScore,
		&record.RawScore,
		&record.ReviewCount,
		&record.Source,
		&record.ComputedAt,
	)
	record.BusinessUnitID = domain.BusinessUnitID(unit)

	return record, err
}
