package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("ingestion queue is full")
	ErrInvalidRecord = errors.New("invalid history record")
	ErrUnknownTier   = errors.New("unknown subscription tier")
)
