package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/admetrics/internal/domain/model"
)

var day0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func mkDay(id, channel string, offset int) model.CampaignDay {
	return model.CampaignDay{
		ID:          id,
		Channel:     channel,
		Date:        day0.AddDate(0, 0, offset),
		Spend:       100,
		Impressions: 10_000,
		Clicks:      200,
		Conversions: 4,
		Revenue:     2_396,
	}
}

func TestMemoryStore_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer func() { _ = store.Close() }()

	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("expected empty store, got %d", n)
	}

	for _, d := range []model.CampaignDay{
		mkDay("g3", "google_ads", 3),
		mkDay("g1", "google_ads", 1),
		mkDay("l1", "linkedin", 1),
		mkDay("g2", "google_ads", 2),
	} {
		added, err := store.Append(ctx, d)
		if err != nil {
			t.Fatalf("append %s: %v", d.ID, err)
		}
		if !added {
			t.Fatalf("expected %s to be added", d.ID)
		}
	}

	days, err := store.ByChannel(ctx, "google_ads")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 google days, got %d", len(days))
	}
	for i, want := range []string{"g1", "g2", "g3"} {
		if days[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, days[i].ID)
		}
	}

	channels, _ := store.Channels(ctx)
	if fmt.Sprint(channels) != "[google_ads linkedin]" {
		t.Errorf("unexpected channels %v", channels)
	}

	all, _ := store.All(ctx)
	if len(all) != 4 || all[3].ID != "l1" {
		t.Errorf("expected channel-ordered records, got %+v", all)
	}

	if n, _ := store.Count(ctx); n != 4 {
		t.Errorf("expected count 4, got %d", n)
	}

	if days, _ := store.ByChannel(ctx, "tiktok"); len(days) != 0 {
		t.Errorf("expected no records for unknown channel, got %d", len(days))
	}
}

func TestMemoryStore_Duplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer func() { _ = store.Close() }()

	if added, _ := store.Append(ctx, mkDay("d1", "email", 0)); !added {
		t.Fatal("expected first append to succeed")
	}
	added, err := store.Append(ctx, mkDay("d1", "facebook", 1))
	if err != nil {
		t.Fatalf("duplicate must not error: %v", err)
	}
	if added {
		t.Error("expected duplicate id to be ignored")
	}
	if days, _ := store.ByChannel(ctx, "facebook"); len(days) != 0 {
		t.Error("duplicate must not be stored under another channel")
	}
}

func TestMemoryStore_Validation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	if _, err := store.Append(ctx, model.CampaignDay{Channel: "email"}); !errors.Is(err, ErrMissingRecord) {
		t.Errorf("expected ErrMissingRecord, got %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Append(cctx, mkDay("x", "email", 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := store.Append(ctx, mkDay("y", "email", 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer func() { _ = store.Close() }()

	_, _ = store.Append(ctx, mkDay("a", "email", 0))
	days, _ := store.ByChannel(ctx, "email")
	days[0].Spend = 9_999

	again, _ := store.ByChannel(ctx, "email")
	if again[0].Spend != 100 {
		t.Errorf("store leaked internal slice: spend %v", again[0].Spend)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMetricsUpdateInterval(10*time.Millisecond))
	defer func() { _ = store.Close() }()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				_, _ = store.Append(ctx, mkDay(fmt.Sprintf("%d-%d", g, i), fmt.Sprintf("ch-%d", g%3), i))
				_, _ = store.ByChannel(ctx, "ch-0")
			}
		}(g)
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 2000 {
		t.Errorf("expected 2000 records, got %d", n)
	}
	days, _ := store.ByChannel(ctx, "ch-1")
	for i := 1; i < len(days); i++ {
		if days[i].Date.Before(days[i-1].Date) {
			t.Fatalf("records out of order at %d", i)
		}
	}
}
