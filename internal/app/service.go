// Package service wires the KPI, attribution, allocation and optimizer
// domains to the history ingestion pipeline and exposes them to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/montanaflynn/stats"

	"github.com/okian/admetrics/internal/adapters/importer"
	"github.com/okian/admetrics/internal/adapters/mq/queue"
	"github.com/okian/admetrics/internal/adapters/mq/worker"
	"github.com/okian/admetrics/internal/adapters/repository"
	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/attribution"
	"github.com/okian/admetrics/internal/domain/dedupe"
	"github.com/okian/admetrics/internal/domain/kpi"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/internal/domain/optimizer"
	"github.com/okian/admetrics/pkg/logger"
	"github.com/okian/admetrics/pkg/metrics"
)

const (
	defaultQueueSize  = 100_000
	defaultDedupeSize = 500_000
	defaultTier       = "pro"
)

// Service implements the dependencies required by the HTTP API.
type Service struct {
	mu sync.RWMutex

	calc      *kpi.Calculator
	engine    *attribution.Engine
	allocator *allocation.Allocator

	store   repository.HistoryStore
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	frequencyCap    int
	predictionTier  string
	tiers           map[string]model.SubscriptionTier
	attributionOpts []attribution.Option
	allocationOpts  []allocation.Option

	started   bool
	ownsStore bool

	logger logger.Logger
}

// SubmitResult reports how a batch of history records was handled.
type SubmitResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

// ChannelSummary aggregates one channel's stored history.
type ChannelSummary struct {
	Channel     string     `json:"channel"`
	Days        int        `json:"days"`
	Spend       float64    `json:"spend"`
	Revenue     float64    `json:"revenue"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	Conversions int64      `json:"conversions"`
	MedianROAS  float64    `json:"median_daily_roas"`
	ROAS        kpi.Result `json:"roas"`
	CPA         kpi.Result `json:"cpa"`
	CTR         kpi.Result `json:"ctr"`
}

// Stats is the snapshot served on /stats.
type Stats struct {
	Started       bool  `json:"started"`
	WorkerCount   int   `json:"worker_count"`
	QueueCapacity int   `json:"queue_capacity"`
	QueueLength   int   `json:"queue_length"`
	DedupeSize    int64 `json:"dedupe_size"`
	Records       int   `json:"records"`
	Channels      int   `json:"channels"`
	Processed     int64 `json:"processed"`
}

// New builds the domain components. Ingestion starts with Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		frequencyCap:   optimizer.DefaultFrequencyCap,
		predictionTier: defaultTier,
		tiers:          model.DefaultTiers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if _, ok := s.tiers[s.predictionTier]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTier, s.predictionTier)
	}

	var err error
	s.calc = kpi.NewCalculator(kpi.WithTiers(s.tiers))
	engineOpts := append([]attribution.Option{attribution.WithLogger(s.logger.Named("attribution"))}, s.attributionOpts...)
	if s.engine, err = attribution.NewEngine(engineOpts...); err != nil {
		return nil, fmt.Errorf("attribution engine: %w", err)
	}
	if s.allocator, err = allocation.New(s.allocationOpts...); err != nil {
		return nil, fmt.Errorf("budget allocator: %w", err)
	}
	return s, nil
}

// Start creates the ingestion queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting admetrics service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory history store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, worker.WithForgetter(s.deduper))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "admetrics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the queue and closes the history store. A service that built
// its own in-memory store starts over with an empty one on the next Start.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping admetrics service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history store: %w", err))
	}
	if s.ownsStore {
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "admetrics service stopped", logger.Int64("processed", s.pool.Processed()))
	return errors.Join(errs...)
}

// KPI computes metric from in and records the outcome.
func (s *Service) KPI(ctx context.Context, metric string, in kpi.Inputs) (kpi.Result, error) {
	m, err := kpi.ParseMetric(metric)
	if err != nil {
		metrics.RecordCalculationFailure("kpi", "unknown_metric")
		return kpi.Result{}, err
	}
	res, err := s.calc.Compute(m, in)
	if err != nil {
		metrics.RecordCalculationFailure("kpi", "invalid_input")
		return kpi.Result{}, err
	}
	band := string(res.Band)
	if band == "" {
		band = string(res.Status)
	}
	metrics.RecordKPI(string(m), band)
	return res, nil
}

// Attribute credits one journey with the named model.
func (s *Service) Attribute(ctx context.Context, kind string, j attribution.Journey) (attribution.Report, error) {
	k, err := attribution.ParseKind(kind)
	if err != nil {
		metrics.RecordCalculationFailure("attribution", "unknown_model")
		return attribution.Report{}, err
	}
	report, err := s.engine.Attribute(ctx, k, j)
	if err != nil {
		metrics.RecordCalculationFailure("attribution", "engine_error")
		return attribution.Report{}, err
	}
	metrics.RecordAttribution(string(report.Model), report.Touchpoints, report.Dropped)
	return report, nil
}

// CompareAttribution runs every model over the same journey.
func (s *Service) CompareAttribution(ctx context.Context, j attribution.Journey) ([]attribution.Report, error) {
	reports, err := s.engine.Compare(ctx, j)
	if err != nil {
		metrics.RecordCalculationFailure("attribution", "engine_error")
		return nil, err
	}
	for _, r := range reports {
		metrics.RecordAttribution(string(r.Model), r.Touchpoints, r.Dropped)
	}
	return reports, nil
}

// Allocate splits total across channels.
func (s *Service) Allocate(ctx context.Context, total float64, channels map[string]model.ChannelPerformance) (allocation.Plan, error) {
	plan, err := s.allocator.Allocate(total, channels)
	if err != nil {
		metrics.RecordCalculationFailure("allocation", reasonOf(err))
		return allocation.Plan{}, err
	}
	metrics.RecordAllocation(plan.CapBreached)
	if plan.CapBreached {
		s.logger.Warn(ctx, "allocation correction breached share bounds",
			logger.String("channel", plan.Adjusted),
			logger.Float64("adjustment", plan.Adjustment),
		)
	}
	return plan, nil
}

// SuggestBids maps channel ROAS to bid adjustments.
func (s *Service) SuggestBids(_ context.Context, channels map[string]optimizer.BidInput) []optimizer.BidSuggestion {
	return optimizer.SuggestBids(channels)
}

// CapFrequency applies the weekly cap. capPerWeek <= 0 uses the configured cap.
func (s *Service) CapFrequency(_ context.Context, weekly map[string]int, capPerWeek int) ([]optimizer.FrequencyDecision, error) {
	if capPerWeek <= 0 {
		capPerWeek = s.frequencyCap
	}
	return optimizer.CapFrequency(weekly, capPerWeek)
}

// Predict extrapolates budget for channel from stored history. A zero ltv
// uses the prediction tier's LTV.
func (s *Service) Predict(ctx context.Context, budget float64, channel string, ltv float64) (optimizer.Prediction, error) {
	store, err := s.activeStore()
	if err != nil {
		return optimizer.Prediction{}, err
	}
	if ltv == 0 {
		ltv = s.tiers[s.predictionTier].LTV()
	}
	history, err := store.All(ctx)
	if err != nil {
		return optimizer.Prediction{}, fmt.Errorf("load history: %w", err)
	}
	p, err := optimizer.Predict(budget, channel, history, ltv)
	if err != nil {
		metrics.RecordCalculationFailure("prediction", reasonOf(err))
		return optimizer.Prediction{}, err
	}
	metrics.RecordPrediction(channel)
	return p, nil
}

// Submit validates a batch and enqueues it for the workers. Records whose id
// was already seen count as duplicates. Records without an id get one derived
// from channel and date. When the queue fills up, the records accepted so far
// stay queued and ErrBackpressure is returned.
func (s *Service) Submit(ctx context.Context, days []model.CampaignDay) (SubmitResult, error) {
	if !s.isStarted() {
		return SubmitResult{}, ErrNotStarted
	}
	for i := range days {
		if days[i].ID == "" {
			days[i].ID = importer.DeriveID(days[i].Channel, days[i].Date)
		}
		if err := days[i].Validate(); err != nil {
			metrics.RecordHistoryRejected("invalid")
			return SubmitResult{}, fmt.Errorf("%w: record %d: %w", ErrInvalidRecord, i, err)
		}
	}

	var res SubmitResult
	for _, d := range days {
		if s.deduper.SeenAndRecord(ctx, d.ID) {
			metrics.RecordHistoryDuplicate()
			res.Duplicates++
			continue
		}
		if err := s.queue.Enqueue(ctx, d); err != nil {
			s.deduper.Unrecord(ctx, d.ID)
			if errors.Is(err, queue.ErrFull) {
				return res, fmt.Errorf("%w: %d of %d accepted", ErrBackpressure, res.Accepted, len(days))
			}
			return res, fmt.Errorf("enqueue %s: %w", d.ID, err)
		}
		res.Accepted++
	}
	return res, nil
}

// LoadHistory reads an xlsx/csv history file and appends it to the store
// synchronously, bypassing the queue. A file holding any invalid row is
// rejected as a whole with ErrInvalidRecord.
func (s *Service) LoadHistory(ctx context.Context, path string) (SubmitResult, error) {
	store, err := s.activeStore()
	if err != nil {
		return SubmitResult{}, err
	}
	days, err := importer.ReadFile(path)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	for i := range days {
		if days[i].ID == "" {
			days[i].ID = importer.DeriveID(days[i].Channel, days[i].Date)
		}
		if err := days[i].Validate(); err != nil {
			metrics.RecordHistoryRejected("invalid")
			return SubmitResult{}, fmt.Errorf("%w: %s row %d: %w", ErrInvalidRecord, path, i+1, err)
		}
	}

	var res SubmitResult
	for _, d := range days {
		if s.deduper.SeenAndRecord(ctx, d.ID) {
			res.Duplicates++
			continue
		}
		stored, err := store.Append(ctx, d)
		if err != nil {
			s.deduper.Unrecord(ctx, d.ID)
			return res, fmt.Errorf("append %s: %w", d.ID, err)
		}
		if !stored {
			res.Duplicates++
			continue
		}
		metrics.RecordHistoryIngested()
		res.Accepted++
	}
	s.logger.Info(ctx, "history file loaded",
		logger.String("path", path),
		logger.Int("accepted", res.Accepted),
		logger.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

// History returns stored records, optionally for one channel.
func (s *Service) History(ctx context.Context, channel string) ([]model.CampaignDay, error) {
	store, err := s.activeStore()
	if err != nil {
		return nil, err
	}
	if channel != "" {
		return store.ByChannel(ctx, channel)
	}
	return store.All(ctx)
}

// Channels summarises stored history per channel.
func (s *Service) Channels(ctx context.Context) ([]ChannelSummary, error) {
	store, err := s.activeStore()
	if err != nil {
		return nil, err
	}
	channels, err := store.Channels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		days, err := store.ByChannel(ctx, ch)
		if err != nil {
			return nil, err
		}
		out = append(out, s.summarize(ch, days))
	}
	return out, nil
}

func (s *Service) summarize(channel string, days []model.CampaignDay) ChannelSummary {
	sum := ChannelSummary{Channel: channel, Days: len(days)}
	daily := make([]float64, 0, len(days))
	for _, d := range days {
		sum.Spend += d.Spend
		sum.Revenue += d.Revenue
		sum.Impressions += d.Impressions
		sum.Clicks += d.Clicks
		sum.Conversions += d.Conversions
		if d.Spend > 0 {
			daily = append(daily, d.ROAS())
		}
	}
	if med, err := stats.Median(daily); err == nil {
		sum.MedianROAS = med
	}
	sum.ROAS = s.calc.ROAS(sum.Revenue, sum.Spend)
	sum.CPA = s.calc.CPA(sum.Spend, float64(sum.Conversions))
	sum.CTR = s.calc.CTR(float64(sum.Clicks), float64(sum.Impressions))
	return sum
}

// Stats returns a monitoring snapshot.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Started: s.started, WorkerCount: s.workerCount, QueueCapacity: s.queueSize}
	if !s.started {
		return st
	}
	st.QueueLength = s.queue.Len(ctx)
	st.DedupeSize = s.deduper.Size()
	st.Processed = s.pool.Processed()
	if n, err := s.store.Count(ctx); err == nil {
		st.Records = n
		metrics.UpdateHistoryRecords(n)
	}
	if chs, err := s.store.Channels(ctx); err == nil {
		st.Channels = len(chs)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	return st
}

// activeStore snapshots the history store together with the started flag so
// a concurrent Stop cannot swap it out mid-call.
func (s *Service) activeStore() (repository.HistoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// reasonOf maps domain sentinels to short metric labels.
func reasonOf(err error) string {
	switch {
	case errors.Is(err, allocation.ErrInvalidBudget):
		return "invalid_budget"
	case errors.Is(err, allocation.ErrNoChannels):
		return "no_channels"
	case errors.Is(err, allocation.ErrInvalidPerformance):
		return "invalid_performance"
	case errors.Is(err, allocation.ErrNoSignal):
		return "no_signal"
	case errors.Is(err, optimizer.ErrNoHistory), errors.Is(err, optimizer.ErrNoChannelHistory):
		return "no_history"
	case errors.Is(err, optimizer.ErrDegenerateHistory):
		return "degenerate_history"
	case errors.Is(err, optimizer.ErrInvalidPredictInput):
		return "invalid_input"
	default:
		return "other"
	}
}
