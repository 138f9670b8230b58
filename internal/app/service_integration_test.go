package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/admetrics/internal/adapters/importer"
	service "github.com/okian/admetrics/internal/app"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/internal/domain/optimizer"
	. "github.com/smartystreets/goconvey/convey"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func history(channel string, days int) []model.CampaignDay {
	out := make([]model.CampaignDay, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, model.CampaignDay{
			Channel:     channel,
			Date:        day0.AddDate(0, 0, i),
			Spend:       1000,
			Impressions: 100_000,
			Clicks:      2_000,
			Conversions: 40,
			Revenue:     8_000,
		})
	}
	return out
}

// waitForRecords polls until the store holds n records.
func waitForRecords(ctx context.Context, svc *service.Service, n int) int {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := svc.Stats(ctx).Records; got >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return svc.Stats(ctx).Records
}

func TestServiceIngestion(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc, err := service.New(service.WithWorkerCount(4), service.WithQueueSize(1000))
		So(err, ShouldBeNil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a batch without ids is submitted", func() {
			batch := append(history("google_ads", 10), history("linkedin", 5)...)
			res, err := svc.Submit(ctx, batch)
			So(err, ShouldBeNil)
			So(res.Accepted, ShouldEqual, 15)
			So(waitForRecords(ctx, svc, 15), ShouldEqual, 15)

			Convey("Then resubmitting it only yields duplicates", func() {
				res, err := svc.Submit(ctx, append(history("google_ads", 10), history("linkedin", 5)...))
				So(err, ShouldBeNil)
				So(res.Accepted, ShouldEqual, 0)
				So(res.Duplicates, ShouldEqual, 15)
			})

			Convey("Then history and channel summaries reflect it", func() {
				all, err := svc.History(ctx, "")
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 15)

				g, err := svc.History(ctx, "google_ads")
				So(err, ShouldBeNil)
				So(len(g), ShouldEqual, 10)
				So(g[0].Date.Before(g[9].Date), ShouldBeTrue)

				sums, err := svc.Channels(ctx)
				So(err, ShouldBeNil)
				So(len(sums), ShouldEqual, 2)
				So(sums[0].Channel, ShouldEqual, "google_ads")
				So(sums[0].Spend, ShouldEqual, 10_000)
				So(sums[0].ROAS.Value, ShouldAlmostEqual, 8, 1e-9)
				So(sums[0].MedianROAS, ShouldAlmostEqual, 8, 1e-9)
				So(sums[0].CPA.Value, ShouldAlmostEqual, 25, 1e-9)
			})

			Convey("Then predictions use the stored history", func() {
				p, err := svc.Predict(ctx, 10_000, "google_ads", 100)
				So(err, ShouldBeNil)
				So(float64(p.Impressions), ShouldAlmostEqual, 1_000_000, 1)
				So(float64(p.Clicks), ShouldAlmostEqual, 20_000, 1)
				So(float64(p.Conversions), ShouldAlmostEqual, 400, 1)
				So(p.Revenue, ShouldAlmostEqual, 40_000, 1)
				So(p.SampleDays, ShouldEqual, 10)

				_, err = svc.Predict(ctx, 10_000, "tiktok", 0)
				So(errors.Is(err, optimizer.ErrNoChannelHistory), ShouldBeTrue)
			})
		})

		Convey("When a batch holds an invalid record", func() {
			batch := history("google_ads", 3)
			batch[1].Clicks = batch[1].Impressions + 1
			_, err := svc.Submit(ctx, batch)

			Convey("Then nothing is enqueued", func() {
				So(errors.Is(err, service.ErrInvalidRecord), ShouldBeTrue)
				So(svc.Stats(ctx).DedupeSize, ShouldEqual, 0)
			})
		})

		Convey("When the store is empty", func() {
			_, err := svc.Predict(ctx, 10_000, "google_ads", 0)
			So(errors.Is(err, optimizer.ErrNoHistory), ShouldBeTrue)
		})

		Convey("When a history file is loaded", func() {
			path := filepath.Join(t.TempDir(), "history.csv")
			So(importer.WriteFile(path, history("facebook", 7)), ShouldBeNil)

			res, err := svc.LoadHistory(ctx, path)
			So(err, ShouldBeNil)
			So(res.Accepted, ShouldEqual, 7)
			So(svc.Stats(ctx).Records, ShouldEqual, 7)

			Convey("Then loading it again adds nothing", func() {
				res, err := svc.LoadHistory(ctx, path)
				So(err, ShouldBeNil)
				So(res.Duplicates, ShouldEqual, 7)
				So(svc.Stats(ctx).Records, ShouldEqual, 7)
			})
		})

		Convey("When a history file holds an invalid row", func() {
			path := filepath.Join(t.TempDir(), "history.csv")
			csv := "date,channel,spend,impressions,clicks,conversions,revenue\n" +
				"2024-01-01,google_ads,1000,100000,2000,40,8000\n" +
				"2024-01-02,google_ads,-500,10,999,-3,-100\n"
			So(os.WriteFile(path, []byte(csv), 0o600), ShouldBeNil)

			res, err := svc.LoadHistory(ctx, path)

			Convey("Then the whole file is rejected and nothing is stored", func() {
				So(errors.Is(err, service.ErrInvalidRecord), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvalidCampaignDay), ShouldBeTrue)
				So(res.Accepted, ShouldEqual, 0)
				So(svc.Stats(ctx).Records, ShouldEqual, 0)
				So(svc.Stats(ctx).DedupeSize, ShouldEqual, 0)

				summaries, err := svc.Channels(ctx)
				So(err, ShouldBeNil)
				So(summaries, ShouldBeEmpty)
			})
		})

		Convey("When the history file is missing", func() {
			_, err := svc.LoadHistory(ctx, filepath.Join(t.TempDir(), "nope.xlsx"))
			So(err, ShouldNotBeNil)
		})
	})
}

// blockingStore holds every Append until release is closed.
type blockingStore struct {
	release chan struct{}
	mu      sync.Mutex
	days    []model.CampaignDay
}

func (b *blockingStore) Append(ctx context.Context, day model.CampaignDay) (bool, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.days = append(b.days, day)
	return true, nil
}

func (b *blockingStore) ByChannel(context.Context, string) ([]model.CampaignDay, error) {
	return nil, nil
}

func (b *blockingStore) All(context.Context) ([]model.CampaignDay, error) { return nil, nil }

func (b *blockingStore) Channels(context.Context) ([]string, error) { return nil, nil }

func (b *blockingStore) Count(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.days), nil
}

func (b *blockingStore) Close() error { return nil }

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service with a one-slot queue and a stalled store", t, func() {
		store := &blockingStore{release: make(chan struct{})}
		svc, err := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithHistoryStore(store),
		)
		So(err, ShouldBeNil)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When more records arrive than the worker and queue can hold", func() {
			batch := history("google_ads", 5)
			var (
				res     service.SubmitResult
				lastErr error
			)
			for i := range batch {
				var r service.SubmitResult
				r, lastErr = svc.Submit(ctx, batch[i:i+1])
				res.Accepted += r.Accepted
				if lastErr != nil {
					break
				}
				// let the worker pick the first record up
				time.Sleep(20 * time.Millisecond)
			}

			Convey("Then the service reports backpressure and releases the id", func() {
				So(errors.Is(lastErr, service.ErrBackpressure), ShouldBeTrue)
				So(res.Accepted, ShouldEqual, 2)
				So(svc.Stats(ctx).DedupeSize, ShouldEqual, 2)
			})
		})

		Reset(func() {
			close(store.release)
			_ = svc.Stop(ctx)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc, err := service.New(service.WithWorkerCount(8), service.WithQueueSize(10_000))
		So(err, ShouldBeNil)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When goroutines submit overlapping batches", func() {
			var wg sync.WaitGroup
			for g := 0; g < 10; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = svc.Submit(ctx, history("google_ads", 30))
				}()
			}
			wg.Wait()

			Convey("Then each day is stored once", func() {
				So(waitForRecords(ctx, svc, 30), ShouldEqual, 30)
				time.Sleep(20 * time.Millisecond)
				So(svc.Stats(ctx).Records, ShouldEqual, 30)
			})
		})
	})
}
