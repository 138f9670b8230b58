package kpi

import "github.com/okian/admetrics/internal/domain/model"

// Option configures a Calculator.
type Option func(*Calculator)

// WithTiers replaces the subscription tiers used by LTV.
func WithTiers(tiers map[string]model.SubscriptionTier) Option {
	return func(c *Calculator) {
		if len(tiers) == 0 {
			return
		}
		c.tiers = make(map[string]model.SubscriptionTier, len(tiers))
		for k, t := range tiers {
			c.tiers[k] = t
		}
	}
}
