// Package repository defines the campaign history store interface and its
// in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/admetrics/internal/domain/model"
)

// HistoryStore persists campaign-day records keyed by record id.
type HistoryStore interface {
	// Append stores day. It returns false without error when a record with
	// the same id already exists.
	Append(ctx context.Context, day model.CampaignDay) (bool, error)

	// ByChannel returns the records of one channel ordered by date.
	ByChannel(ctx context.Context, channel string) ([]model.CampaignDay, error)

	// All returns every record ordered by channel, then date.
	All(ctx context.Context) ([]model.CampaignDay, error)

	// Channels returns the channels with at least one record, sorted.
	Channels(ctx context.Context) ([]string, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
