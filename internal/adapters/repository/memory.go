package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/metrics"
)

// MemoryStore keeps history in per-channel slices sorted by date.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]struct{}
	byChannel map[string][]model.CampaignDay
	closed    bool

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]struct{}),
		byChannel:             make(map[string][]model.CampaignDay),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Append inserts day keeping the channel slice date-ordered. Records with
// equal dates keep insertion order.
func (s *MemoryStore) Append(ctx context.Context, day model.CampaignDay) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if day.ID == "" || day.Channel == "" {
		return false, ErrMissingRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	if _, dup := s.byID[day.ID]; dup {
		return false, nil
	}
	s.byID[day.ID] = struct{}{}

	days := s.byChannel[day.Channel]
	i := sort.Search(len(days), func(i int) bool { return days[i].Date.After(day.Date) })
	days = append(days, model.CampaignDay{})
	copy(days[i+1:], days[i:])
	days[i] = day
	s.byChannel[day.Channel] = days
	return true, nil
}

// ByChannel returns a copy of the channel's records.
func (s *MemoryStore) ByChannel(ctx context.Context, channel string) ([]model.CampaignDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := s.byChannel[channel]
	out := make([]model.CampaignDay, len(days))
	copy(out, days)
	return out, nil
}

// All returns a copy of every record.
func (s *MemoryStore) All(ctx context.Context) ([]model.CampaignDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CampaignDay, 0, len(s.byID))
	for _, ch := range s.channelsLocked() {
		out = append(out, s.byChannel[ch]...)
	}
	return out, nil
}

// Channels returns the known channels sorted by name.
func (s *MemoryStore) Channels(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelsLocked(), nil
}

func (s *MemoryStore) channelsLocked() []string {
	out := make([]string, 0, len(s.byChannel))
	for ch := range s.byChannel {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Close stops the metrics updater. Further appends fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// startMetricsUpdater publishes the record count until ctx is done or the store closes.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	n, _ := s.Count(context.Background())
	metrics.UpdateHistoryRecords(n)
}
