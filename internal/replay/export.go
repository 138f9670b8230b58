package replay

import (
	"context"
	"sort"

	"github.com/okian/admetrics/internal/adapters/importer"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
)

// Export downloads stored history (optionally one channel) and writes it to
// path as xlsx or csv. Records are ordered by date, then channel.
func Export(ctx context.Context, cfg Config, channel, path string) (int, error) {
	cfg = cfg.withDefaults()
	if _, err := importer.Format(path); err != nil {
		return 0, err
	}
	days, err := NewClient(cfg.BaseURL, cfg.Timeout).History(ctx, channel)
	if err != nil {
		return 0, err
	}
	sort.Slice(days, func(i, j int) bool {
		if !days[i].Date.Equal(days[j].Date) {
			return days[i].Date.Before(days[j].Date)
		}
		return days[i].Channel < days[j].Channel
	})
	if err := importer.WriteFile(path, days); err != nil {
		return 0, err
	}
	logger.Named("replay").Info(ctx, "history exported",
		logger.String("path", path),
		logger.String("channel", channel),
		logger.Int("records", len(days)))
	return len(days), nil
}

func readWithIDs(path string) ([]model.CampaignDay, error) {
	days, err := importer.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for i := range days {
		if days[i].ID == "" {
			days[i].ID = importer.DeriveID(days[i].Channel, days[i].Date)
		}
	}
	return days, nil
}
