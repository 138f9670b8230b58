package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix = "ADM_"
	EnvFile   = "ADM_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ADM_CONFIG is set
//  3. env (prefix ADM_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ADM_QUEUE_SIZE -> queue_size. Underscores are kept to match the koanf
	// tags; ADM_CONFIG is the file pointer, not a key.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvFile {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.HistoryBackend != BackendMemory && c.HistoryBackend != BackendPostgres:
		return fmt.Errorf("%w: unknown history_backend %q", ErrInvalidConfig, c.HistoryBackend)
	case c.HistoryBackend == BackendPostgres && c.PostgresURL == "":
		return fmt.Errorf("%w: postgres_url is required for the postgres backend", ErrInvalidConfig)
	case c.LookbackDays < 0:
		return fmt.Errorf("%w: lookback_days must not be negative", ErrInvalidConfig)
	case c.HalfLifeDays <= 0:
		return fmt.Errorf("%w: half_life_days must be positive", ErrInvalidConfig)
	case c.MinShare < 0 || c.MaxShare > 1 || c.MinShare > c.MaxShare:
		return fmt.Errorf("%w: share bounds [%g, %g] are invalid", ErrInvalidConfig, c.MinShare, c.MaxShare)
	case c.FrequencyCap <= 0:
		return fmt.Errorf("%w: frequency_cap must be positive", ErrInvalidConfig)
	}
	if _, ok := c.Tiers[c.PredictionTier]; !ok {
		return fmt.Errorf("%w: prediction_tier %q is not a configured tier", ErrInvalidConfig, c.PredictionTier)
	}
	return nil
}
