package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
)

// Verify polls GET /history until every id in days is stored or the
// context ends. It returns the number of ids still missing.
func Verify(ctx context.Context, client *Client, days []model.CampaignDay, interval time.Duration) (int, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	want := make(map[string]struct{}, len(days))
	for i := range days {
		want[days[i].ID] = struct{}{}
	}
	log := logger.Named("replay")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		stored, err := client.History(ctx, "")
		if err != nil {
			if ctx.Err() != nil {
				return len(want), fmt.Errorf("%w: %d of %d missing", ErrIncomplete, len(want), len(days))
			}
			return len(want), err
		}
		for i := range stored {
			delete(want, stored[i].ID)
		}
		if len(want) == 0 {
			log.Info(ctx, "all replayed records are stored", logger.Int("records", len(days)))
			return 0, nil
		}
		log.Debug(ctx, "waiting for records", logger.Int("missing", len(want)))

		select {
		case <-ctx.Done():
			return len(want), fmt.Errorf("%w: %d of %d missing", ErrIncomplete, len(want), len(days))
		case <-ticker.C:
		}
	}
}

// VerifyFile reads path and verifies its records against the service.
func VerifyFile(ctx context.Context, cfg Config, interval time.Duration) (int, error) {
	cfg = cfg.withDefaults()
	days, err := readWithIDs(cfg.File)
	if err != nil {
		return 0, err
	}
	return Verify(ctx, NewClient(cfg.BaseURL, cfg.Timeout), days, interval)
}
