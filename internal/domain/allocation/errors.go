package allocation

import "errors"

// Sentinel errors for budget allocation.
var (
	ErrInvalidBudget      = errors.New("total budget must be positive")
	ErrNoChannels         = errors.New("no channels to allocate")
	ErrInvalidPerformance = errors.New("channel performance must not be negative")
	ErrNoSignal           = errors.New("efficiency scores sum to zero")
	ErrInvalidBounds      = errors.New("invalid share bounds")
	ErrInvalidWeights     = errors.New("score weights must not be negative")
)
