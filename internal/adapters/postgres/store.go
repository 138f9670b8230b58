// Package postgres is the durable campaign history store.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/admetrics/internal/adapters/repository"
	"github.com/okian/admetrics/internal/domain/model"
)

// schemaSQL is applied by EnsureSchema.
//
//go:embed schema.sql
var schemaSQL string

const connectTimeout = 10 * time.Second

const selectColumns = `SELECT id, channel, day, spend, impressions, clicks, conversions, revenue FROM campaign_days`

// Store implements repository.HistoryStore on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.HistoryStore = (*Store)(nil)

// New creates a connection pool and fails fast if the database is unreachable.
func New(ctx context.Context, dbURL string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Ping validates connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Append inserts day; a conflicting id returns false.
func (s *Store) Append(ctx context.Context, day model.CampaignDay) (bool, error) {
	if day.ID == "" || day.Channel == "" {
		return false, repository.ErrMissingRecord
	}

	// RETURNING yields a row only when inserted; duplicates return no rows.
	var one int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO campaign_days(id, channel, day, spend, impressions, clicks, conversions, revenue)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING
		RETURNING 1
	`, day.ID, day.Channel, day.Date, day.Spend, day.Impressions, day.Clicks, day.Conversions, day.Revenue).Scan(&one)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	}
	return false, fmt.Errorf("postgres: append %s: %w", day.ID, err)
}

// ByChannel returns the channel's records ordered by date.
func (s *Store) ByChannel(ctx context.Context, channel string) ([]model.CampaignDay, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE channel = $1 ORDER BY day, ingested_at`, channel)
	if err != nil {
		return nil, fmt.Errorf("postgres: by channel: %w", err)
	}
	return collect(rows)
}

// All returns every record ordered by channel and date.
func (s *Store) All(ctx context.Context) ([]model.CampaignDay, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY channel, day, ingested_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: all: %w", err)
	}
	return collect(rows)
}

// Channels returns the distinct channels, sorted.
func (s *Store) Channels(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT channel FROM campaign_days ORDER BY channel`)
	if err != nil {
		return nil, fmt.Errorf("postgres: channels: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: channels: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM campaign_days`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return int(n), nil
}

// Close shuts down the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func collect(rows pgx.Rows) ([]model.CampaignDay, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CampaignDay, error) {
		var d model.CampaignDay
		err := row.Scan(&d.ID, &d.Channel, &d.Date, &d.Spend, &d.Impressions, &d.Clicks, &d.Conversions, &d.Revenue)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan: %w", err)
	}
	return out, nil
}
