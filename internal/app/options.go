package service

import (
	"time"

	"github.com/okian/admetrics/internal/adapters/repository"
	"github.com/okian/admetrics/internal/config"
	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/attribution"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the record id window. 0 keeps every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryStore replaces the default in-memory history store.
// The service closes the store on Stop.
func WithHistoryStore(store repository.HistoryStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTiers replaces the subscription tier table.
func WithTiers(tiers map[string]model.SubscriptionTier) Option {
	return func(s *Service) {
		if len(tiers) > 0 {
			s.tiers = tiers
		}
	}
}

// WithPredictionTier selects the tier whose LTV backs predictions.
func WithPredictionTier(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.predictionTier = key
		}
	}
}

// WithFrequencyCap sets the default weekly impression cap.
func WithFrequencyCap(capPerWeek int) Option {
	return func(s *Service) {
		if capPerWeek > 0 {
			s.frequencyCap = capPerWeek
		}
	}
}

// WithAttributionOptions forwards options to the attribution engine.
func WithAttributionOptions(opts ...attribution.Option) Option {
	return func(s *Service) {
		s.attributionOpts = append(s.attributionOpts, opts...)
	}
}

// WithAllocationOptions forwards options to the budget allocator.
func WithAllocationOptions(opts ...allocation.Option) Option {
	return func(s *Service) {
		s.allocationOpts = append(s.allocationOpts, opts...)
	}
}

// OptionsFromConfig translates a loaded configuration into service options.
// The history store is not covered; callers pick the backend.
func OptionsFromConfig(cfg *config.Config) []Option {
	tiers := make(map[string]model.SubscriptionTier, len(cfg.Tiers))
	for key, t := range cfg.Tiers {
		tiers[key] = model.SubscriptionTier{
			Key:               key,
			Name:              t.Name,
			MonthlyPrice:      t.MonthlyPrice,
			AvgLifetimeMonths: t.AvgLifetimeMonths,
			TypicalJobsPosted: t.TypicalJobsPosted,
		}
	}
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithTiers(tiers),
		WithPredictionTier(cfg.PredictionTier),
		WithFrequencyCap(cfg.FrequencyCap),
		WithAttributionOptions(
			attribution.WithLookback(time.Duration(cfg.LookbackDays)*24*time.Hour),
			attribution.WithHalfLife(cfg.HalfLifeDays),
			attribution.WithFirstLastWeight(cfg.FirstLastWeight),
			attribution.WithPermissiveUShaped(cfg.PermissiveUShaped),
		),
		WithAllocationOptions(allocation.WithShareBounds(cfg.MinShare, cfg.MaxShare)),
	}
}
