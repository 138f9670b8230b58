// Package replay pushes campaign-day history files into a running admetrics
// server and pulls stored history back out.
package replay

import (
	"runtime"
	"time"
)

// Defaults used when Config fields are left zero.
const (
	DefaultBaseURL    = "http://localhost:9080"
	DefaultBatchSize  = 200
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 5
	DefaultRetryDelay = 200 * time.Millisecond
)

// Config holds replay settings.
type Config struct {
	BaseURL    string        // Base URL of the service
	File       string        // xlsx/csv history file
	BatchSize  int           // records per POST /history
	Workers    int           // concurrent batch uploads
	Timeout    time.Duration // HTTP request timeout
	MaxRetries int           // retries per batch on 429
	RetryDelay time.Duration // first backoff delay, doubled per retry
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	} else if out.MaxRetries == 0 {
		out.MaxRetries = DefaultMaxRetries
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = DefaultRetryDelay
	}
	return out
}

// Stats summarises a replay.
type Stats struct {
	Records    int           `json:"records"`
	Batches    int           `json:"batches"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Retries    int           `json:"retries"`
	Duration   time.Duration `json:"duration"`
}
