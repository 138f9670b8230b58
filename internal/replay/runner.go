package replay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
)

// Replay reads cfg.File and submits it to the service in batches.
// Progress is drawn on progress; pass io.Discard to silence it.
func Replay(ctx context.Context, cfg Config, progress io.Writer) (Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Named("replay")
	start := time.Now()

	days, err := readWithIDs(cfg.File)
	if err != nil {
		return Stats{}, err
	}

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return Stats{}, err
	}

	log.Info(ctx, "replaying history",
		logger.String("file", cfg.File),
		logger.Int("records", len(days)),
		logger.Int("batch_size", cfg.BatchSize),
		logger.Int("workers", cfg.Workers))

	stats, err := submit(ctx, client, cfg, days, progress)
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, err
	}

	log.Info(ctx, "replay complete",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("retries", stats.Retries),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// Batches splits days into chunks of at most size records.
func Batches(days []model.CampaignDay, size int) [][]model.CampaignDay {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]model.CampaignDay, 0, (len(days)+size-1)/size)
	for len(days) > 0 {
		n := min(size, len(days))
		out = append(out, days[:n])
		days = days[n:]
	}
	return out
}

func submit(ctx context.Context, client *Client, cfg Config, days []model.CampaignDay, progress io.Writer) (Stats, error) {
	batches := Batches(days, cfg.BatchSize)
	bar := progressbar.NewOptions(len(days),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("replay"),
		progressbar.OptionShowCount(),
	)

	var accepted, duplicates, retries atomic.Int64
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)

	for _, batch := range batches {
		batch := batch
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			ack, tries, err := postWithRetry(gctx, client, cfg, batch)
			retries.Add(int64(tries))
			accepted.Add(int64(ack.Accepted))
			if err != nil {
				return err
			}
			duplicates.Add(int64(ack.Duplicates))
			_ = bar.Add(len(batch))
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	_ = bar.Finish()

	return Stats{
		Records:    len(days),
		Batches:    len(batches),
		Accepted:   int(accepted.Load()),
		Duplicates: int(duplicates.Load()),
		Retries:    int(retries.Load()),
	}, err
}

// postWithRetry retries a batch on 429 with doubling delay. It returns the
// number of retries performed. Records queued by a rejected attempt come back
// as duplicates on the next one, so they are moved from Duplicates to
// Accepted in the returned ack.
func postWithRetry(ctx context.Context, client *Client, cfg Config, batch []model.CampaignDay) (Ack, int, error) {
	records := make([]Record, len(batch))
	for i := range batch {
		records[i] = ToRecord(batch[i])
	}

	delay := cfg.RetryDelay
	queued := 0
	for attempt := 0; ; attempt++ {
		ack, status, err := client.PostHistory(ctx, records)
		if err != nil {
			return Ack{}, attempt, err
		}
		if status != http.StatusTooManyRequests {
			moved := min(queued, ack.Duplicates)
			ack.Accepted += moved
			ack.Duplicates -= moved
			return ack, attempt, nil
		}
		// each attempt resends the whole batch, so its accepted count only
		// covers records no earlier attempt queued
		queued += ack.Accepted
		if attempt >= cfg.MaxRetries {
			return Ack{Accepted: queued}, attempt, fmt.Errorf("%w after %d retries", ErrBackpressure, attempt)
		}
		select {
		case <-ctx.Done():
			return Ack{Accepted: queued}, attempt, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
