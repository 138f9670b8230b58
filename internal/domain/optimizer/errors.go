package optimizer

import "errors"

// Sentinel errors for campaign optimisation.
var (
	ErrInvalidCap          = errors.New("frequency cap must be positive")
	ErrNoHistory           = errors.New("no historical data available")
	ErrNoChannelHistory    = errors.New("no historical data for channel")
	ErrDegenerateHistory   = errors.New("historical CPM is zero")
	ErrInvalidPredictInput = errors.New("budget and ltv must be positive")
)
