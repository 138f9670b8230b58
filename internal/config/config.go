// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and ADM_ environment variables on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// History backends accepted by HistoryBackend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Tier describes a subscription tier used for LTV calculations.
type Tier struct {
	Name              string  `koanf:"name"`
	MonthlyPrice      float64 `koanf:"monthly_price"`
	AvgLifetimeMonths float64 `koanf:"avg_lifetime_months"`
	TypicalJobsPosted int     `koanf:"typical_jobs_posted"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory history ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the record id deduplication window.
	DedupeSize int `koanf:"dedupe_size"`

	// HistoryBackend is memory or postgres.
	HistoryBackend string `koanf:"history_backend"`

	// PostgresURL is the pgx connection string used by the postgres backend.
	PostgresURL string `koanf:"postgres_url"`

	// HistoryFile is an optional xlsx/csv file preloaded at startup.
	HistoryFile string `koanf:"history_file"`

	// Attribution defaults.
	LookbackDays      int     `koanf:"lookback_days"`
	HalfLifeDays      float64 `koanf:"half_life_days"`
	FirstLastWeight   float64 `koanf:"first_last_weight"`
	PermissiveUShaped bool    `koanf:"permissive_u_shaped"`

	// Allocation clamps as fractions of the total budget.
	MinShare float64 `koanf:"min_share"`
	MaxShare float64 `koanf:"max_share"`

	// FrequencyCap is the default weekly impression cap per user.
	FrequencyCap int `koanf:"frequency_cap"`

	// PredictionTier selects the tier whose LTV is used by predictions
	// when the request does not carry one.
	PredictionTier string `koanf:"prediction_tier"`

	// Tiers maps tier keys (basic, pro, enterprise) to their economics.
	Tiers map[string]Tier `koanf:"tiers"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         100_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        500_000,
		HistoryBackend:    BackendMemory,
		LookbackDays:      30,
		HalfLifeDays:      7,
		FirstLastWeight:   0.4,
		PermissiveUShaped: false,
		MinShare:          0.10,
		MaxShare:          0.40,
		FrequencyCap:      10,
		PredictionTier:    "pro",
		Tiers: map[string]Tier{
			"basic":      {Name: "Basic", MonthlyPrice: 299, AvgLifetimeMonths: 6, TypicalJobsPosted: 1},
			"pro":        {Name: "Pro", MonthlyPrice: 599, AvgLifetimeMonths: 12, TypicalJobsPosted: 5},
			"enterprise": {Name: "Enterprise", MonthlyPrice: 999, AvgLifetimeMonths: 18, TypicalJobsPosted: 20},
		},
	}
}
