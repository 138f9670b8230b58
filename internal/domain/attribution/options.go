package attribution

import (
	"time"

	"github.com/okian/admetrics/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLookback sets the lookback window applied when a journey carries a conversion time.
func WithLookback(window time.Duration) Option {
	return func(e *Engine) {
		e.lookback = window
	}
}

// WithHalfLife sets the time-decay half-life, in positions.
func WithHalfLife(halfLife float64) Option {
	return func(e *Engine) {
		e.halfLife = halfLife
	}
}

// WithFirstLastWeight sets the U-shaped end weight.
func WithFirstLastWeight(w float64) Option {
	return func(e *Engine) {
		e.firstLast = w
	}
}

// WithPermissiveUShaped accepts out-of-range U-shaped weights with a warning.
func WithPermissiveUShaped(permissive bool) Option {
	return func(e *Engine) {
		e.permissive = permissive
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
