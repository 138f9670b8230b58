package attribution

import (
	"time"

	"github.com/okian/admetrics/internal/domain/model"
)

// DefaultLookback is the B2B conversion window.
const DefaultLookback = 30 * 24 * time.Hour

// Lookback keeps touchpoints at or after conversionAt-window, preserving order.
// There is no upper bound: touchpoints after the conversion are kept.
func Lookback(tps []model.Touchpoint, conversionAt time.Time, window time.Duration) []model.Touchpoint {
	cutoff := conversionAt.Add(-window)
	out := make([]model.Touchpoint, 0, len(tps))
	for _, tp := range tps {
		if !tp.Timestamp.Before(cutoff) {
			out = append(out, tp)
		}
	}
	return out
}
