package kpi

import "errors"

// Sentinel errors for KPI computation.
var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrNegativeInput = errors.New("inputs must not be negative")
)
