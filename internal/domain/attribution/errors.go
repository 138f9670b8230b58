package attribution

import "errors"

// Sentinel errors for attribution.
var (
	ErrUnknownModel         = errors.New("unknown attribution model")
	ErrInvalidHalfLife      = errors.New("half-life must be positive")
	ErrFirstLastWeightRange = errors.New("first/last weight must be within [0, 0.5]")
	ErrInvalidLookback      = errors.New("lookback window must not be negative")
)
