package replay

import "errors"

// Sentinel errors for replay.
var (
	ErrUnhealthy    = errors.New("service health check failed")
	ErrRejected     = errors.New("batch rejected")
	ErrBackpressure = errors.New("service kept rejecting with backpressure")
	ErrIncomplete   = errors.New("replayed records are missing from the service")
)
