package model

// SubscriptionTier describes the economics of a subscription plan.
type SubscriptionTier struct {
	Key               string  `json:"key"`
	Name              string  `json:"name"`
	MonthlyPrice      float64 `json:"monthly_price"`
	AvgLifetimeMonths float64 `json:"avg_lifetime_months"`
	TypicalJobsPosted int     `json:"typical_jobs_posted"`
}

// LTV is price times expected lifetime.
func (t SubscriptionTier) LTV() float64 {
	return t.MonthlyPrice * t.AvgLifetimeMonths
}

// DefaultTiers returns the built-in pricing tiers keyed by tier key.
func DefaultTiers() map[string]SubscriptionTier {
	return map[string]SubscriptionTier{
		"basic":      {Key: "basic", Name: "Basic", MonthlyPrice: 299, AvgLifetimeMonths: 6, TypicalJobsPosted: 1},
		"pro":        {Key: "pro", Name: "Pro", MonthlyPrice: 599, AvgLifetimeMonths: 12, TypicalJobsPosted: 5},
		"enterprise": {Key: "enterprise", Name: "Enterprise", MonthlyPrice: 999, AvgLifetimeMonths: 18, TypicalJobsPosted: 20},
	}
}
