package kpi

import "fmt"

// step is one row of a benchmark table. format receives the metric value.
type step struct {
	bound  float64
	band   Band
	format string
}

// table is an ordered benchmark lookup. Ascending tables match the first
// step whose bound is above the value; descending tables match the first
// step whose bound is below it. rest catches everything else.
type table struct {
	descending bool
	steps      []step
	rest       step
}

func (t table) classify(v float64) (Band, string) {
	for _, s := range t.steps {
		if (!t.descending && v < s.bound) || (t.descending && v > s.bound) {
			return s.band, fmt.Sprintf(s.format, v)
		}
	}
	return t.rest.band, fmt.Sprintf(t.rest.format, v)
}

var roasTable = table{
	steps: []step{
		{1.5, "poor", "Poor ROAS (%.2fx): Campaign is unprofitable. Consider pausing."},
		{3, "below_average", "Below average ROAS (%.2fx): Needs optimization."},
		{5, "average", "Average ROAS (%.2fx): Acceptable but room for improvement."},
		{8, "good", "Good ROAS (%.2fx): Strong performance."},
	},
	rest: step{band: "excellent", format: "Excellent ROAS (%.2fx): Top-tier campaign performance!"},
}

var roiTable = table{
	steps: []step{
		{0, "negative", "Negative ROI (%.1f%%): Campaign is losing money."},
		{100, "low", "Low ROI (%.1f%%): Barely profitable."},
		{300, "moderate", "Moderate ROI (%.1f%%): Acceptable returns."},
		{1000, "good", "Good ROI (%.1f%%): Strong performance."},
	},
	rest: step{band: "exceptional", format: "Exceptional ROI (%.1f%%): Outstanding returns!"},
}

var cpaTable = table{
	descending: true,
	steps: []step{
		{1500, "high", "High CPA ($%.2f): Too expensive, needs immediate attention."},
		{800, "above_average", "Above average CPA ($%.2f): Consider optimization."},
		{500, "average", "Average CPA ($%.2f): Acceptable acquisition cost."},
	},
	rest: step{band: "excellent", format: "Excellent CPA ($%.2f): Very efficient acquisition!"},
}

var cacTable = table{
	descending: true,
	steps: []step{
		{1500, "high", "High CAC ($%.2f): Unsustainable acquisition cost."},
		{800, "above_average", "Above average CAC ($%.2f): Needs efficiency improvements."},
		{500, "acceptable", "Acceptable CAC ($%.2f): Room for optimization."},
	},
	rest: step{band: "excellent", format: "Excellent CAC ($%.2f): Very efficient acquisition!"},
}

var cpmTable = table{
	steps: []step{
		{5, "low", "Low CPM ($%.2f): Great reach efficiency."},
		{15, "average", "Average CPM ($%.2f): Standard pricing."},
		{30, "high", "High CPM ($%.2f): Premium targeting or competitive market."},
	},
	rest: step{band: "very_high", format: "Very high CPM ($%.2f): Consider broader targeting."},
}

var cpcTable = table{
	steps: []step{
		{2, "low", "Low CPC ($%.2f): Excellent click cost."},
		{5, "average", "Average CPC ($%.2f): Standard for recruitment industry."},
		{10, "high", "High CPC ($%.2f): Competitive keywords."},
	},
	rest: step{band: "very_high", format: "Very high CPC ($%.2f): Consider long-tail keywords."},
}

// CTR and CVR bounds are percentages.
var ctrTable = table{
	steps: []step{
		{0.5, "poor", "Poor CTR (%.2f%%): Ad creative needs improvement."},
		{1.5, "below_average", "Below average CTR (%.2f%%): Consider A/B testing."},
		{3, "good", "Good CTR (%.2f%%): Engaging ad creative."},
	},
	rest: step{band: "excellent", format: "Excellent CTR (%.2f%%): Highly relevant targeting!"},
}

var cvrTable = table{
	steps: []step{
		{0.5, "poor", "Poor CVR (%.2f%%): Landing page needs optimization."},
		{1.5, "below_average", "Below average CVR (%.2f%%): Review user experience."},
		{3, "good", "Good CVR (%.2f%%): Solid conversion funnel."},
	},
	rest: step{band: "excellent", format: "Excellent CVR (%.2f%%): Outstanding optimization!"},
}

var merTable = table{
	steps: []step{
		{2, "low", "Low MER (%.2fx): Overall marketing needs review."},
		{4, "average", "Average MER (%.2fx): Acceptable blended performance."},
		{6, "good", "Good MER (%.2fx): Strong overall efficiency."},
	},
	rest: step{band: "excellent", format: "Excellent MER (%.2fx): Outstanding marketing performance!"},
}

var ltvCACTable = table{
	steps: []step{
		{1, "unprofitable", "LTV:CAC of %.2f:1: Losing money on every customer."},
		{3, "low_margin", "LTV:CAC of %.2f:1: Profitable but below the 3:1 target."},
	},
	rest: step{band: "healthy", format: "LTV:CAC of %.2f:1: Healthy unit economics."},
}
