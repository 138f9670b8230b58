package kpi

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/admetrics/internal/domain/model"
)

// Calculator computes KPIs. It is safe for concurrent use.
type Calculator struct {
	tiers   map[string]model.SubscriptionTier
	printer *message.Printer
}

// NewCalculator returns a Calculator using the default tiers unless overridden.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		tiers:   model.DefaultTiers(),
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tier returns the tier registered under key.
func (c *Calculator) Tier(key string) (model.SubscriptionTier, bool) {
	t, ok := c.tiers[key]
	return t, ok
}

func classified(m Metric, v float64, t table) Result {
	band, msg := t.classify(v)
	return Result{Metric: m, Value: v, Band: band, Message: msg, Status: StatusOK}
}

// ROAS is revenue per unit of ad spend.
func (c *Calculator) ROAS(revenue, spend float64) Result {
	if spend == 0 {
		return undefined(MetricROAS, "Cannot calculate ROAS with zero ad spend")
	}
	return classified(MetricROAS, revenue/spend, roasTable)
}

// ROI is net profit as a percentage of total cost.
func (c *Calculator) ROI(revenue, cost float64) Result {
	if cost == 0 {
		return undefined(MetricROI, "Cannot calculate ROI with zero cost")
	}
	return classified(MetricROI, (revenue-cost)/cost*100, roiTable)
}

// CPA is spend per conversion. Zero conversions yield +Inf.
func (c *Calculator) CPA(spend, conversions float64) Result {
	if conversions == 0 {
		return infinite(MetricCPA, "No conversions to calculate CPA")
	}
	return classified(MetricCPA, spend/conversions, cpaTable)
}

// CPM is spend per thousand impressions.
func (c *Calculator) CPM(spend, impressions float64) Result {
	if impressions == 0 {
		return undefined(MetricCPM, "No impressions to calculate CPM")
	}
	return classified(MetricCPM, spend/impressions*1000, cpmTable)
}

// CPC is spend per click.
func (c *Calculator) CPC(spend, clicks float64) Result {
	if clicks == 0 {
		return undefined(MetricCPC, "No clicks to calculate CPC")
	}
	return classified(MetricCPC, spend/clicks, cpcTable)
}

// CTR is clicks per impression in percent.
func (c *Calculator) CTR(clicks, impressions float64) Result {
	if impressions == 0 {
		return undefined(MetricCTR, "No impressions to calculate CTR")
	}
	return classified(MetricCTR, clicks/impressions*100, ctrTable)
}

// CVR is conversions per click in percent.
func (c *Calculator) CVR(conversions, clicks float64) Result {
	if clicks == 0 {
		return undefined(MetricCVR, "No clicks to calculate conversion rate")
	}
	return classified(MetricCVR, conversions/clicks*100, cvrTable)
}

// LTV is the tier's lifetime revenue scaled by retentionModifier.
func (c *Calculator) LTV(tier string, retentionModifier float64) Result {
	t, ok := c.tiers[tier]
	if !ok {
		return undefined(MetricLTV, "Invalid subscription tier")
	}
	months := t.AvgLifetimeMonths * retentionModifier
	ltv := t.MonthlyPrice * months
	msg := c.printer.Sprintf("%s tier LTV: $%.2f (%.1f months @ $%v/month)",
		t.Name, ltv, months, t.MonthlyPrice)
	return Result{Metric: MetricLTV, Value: ltv, Message: msg, Status: StatusOK}
}

// CAC is total acquisition cost per new customer. Zero customers yield +Inf.
func (c *Calculator) CAC(cost, customers float64) Result {
	if customers == 0 {
		return infinite(MetricCAC, "No customers acquired")
	}
	return classified(MetricCAC, cost/customers, cacTable)
}

// MER is blended revenue over blended ad spend.
func (c *Calculator) MER(revenue, spend float64) Result {
	if spend == 0 {
		return undefined(MetricMER, "Cannot calculate MER with zero ad spend")
	}
	return classified(MetricMER, revenue/spend, merTable)
}

// BreakEvenROAS is the minimum ROAS that covers cost at the given margin.
// margin must be in (0, 1].
func (c *Calculator) BreakEvenROAS(margin float64) Result {
	if margin <= 0 || margin > 1 {
		return undefined(MetricBreakEvenROAS, "Invalid profit margin (must be between 0 and 1)")
	}
	be := 1 / margin
	msg := fmt.Sprintf("Break-even ROAS: %.2fx (with %.0f%% margin). Target %.1fx+ for healthy profits.",
		be, margin*100, be*2)
	return Result{Metric: MetricBreakEvenROAS, Value: be, Message: msg, Status: StatusOK}
}

// LTVToCAC is the ratio of lifetime value to acquisition cost.
func (c *Calculator) LTVToCAC(ltv, cac float64) Result {
	if cac == 0 {
		return undefined(MetricLTVToCAC, "Cannot calculate LTV:CAC with zero CAC")
	}
	return classified(MetricLTVToCAC, ltv/cac, ltvCACTable)
}

// Inputs carries the named inputs of every metric. Unused fields are ignored.
type Inputs struct {
	Revenue           float64 `json:"revenue"`
	Spend             float64 `json:"spend"`
	Cost              float64 `json:"cost"`
	Conversions       float64 `json:"conversions"`
	Impressions       float64 `json:"impressions"`
	Clicks            float64 `json:"clicks"`
	Customers         float64 `json:"customers"`
	Margin            float64 `json:"margin"`
	Tier              string  `json:"tier"`
	RetentionModifier float64 `json:"retention_modifier"`
	LTV               float64 `json:"ltv"`
	CAC               float64 `json:"cac"`
}

func (in Inputs) negative() bool {
	for _, v := range []float64{
		in.Revenue, in.Spend, in.Cost, in.Conversions, in.Impressions,
		in.Clicks, in.Customers, in.Margin, in.RetentionModifier, in.LTV, in.CAC,
	} {
		if v < 0 {
			return true
		}
	}
	return false
}

// Compute dispatches to the named metric. A zero RetentionModifier means 1.
func (c *Calculator) Compute(m Metric, in Inputs) (Result, error) {
	if in.negative() {
		return Result{}, ErrNegativeInput
	}
	switch m {
	case MetricROAS:
		return c.ROAS(in.Revenue, in.Spend), nil
	case MetricROI:
		return c.ROI(in.Revenue, in.Cost), nil
	case MetricCPA:
		return c.CPA(in.Spend, in.Conversions), nil
	case MetricCPM:
		return c.CPM(in.Spend, in.Impressions), nil
	case MetricCPC:
		return c.CPC(in.Spend, in.Clicks), nil
	case MetricCTR:
		return c.CTR(in.Clicks, in.Impressions), nil
	case MetricCVR:
		return c.CVR(in.Conversions, in.Clicks), nil
	case MetricLTV:
		mod := in.RetentionModifier
		if mod == 0 {
			mod = 1
		}
		return c.LTV(in.Tier, mod), nil
	case MetricCAC:
		return c.CAC(in.Cost, in.Customers), nil
	case MetricMER:
		return c.MER(in.Revenue, in.Spend), nil
	case MetricBreakEvenROAS:
		return c.BreakEvenROAS(in.Margin), nil
	case MetricLTVToCAC:
		return c.LTVToCAC(in.LTV, in.CAC), nil
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}
