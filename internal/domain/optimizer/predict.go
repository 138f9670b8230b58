package optimizer

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/okian/admetrics/internal/domain/model"
)

// DefaultLTV is the professional tier lifetime value.
const DefaultLTV = 7188.0

// ConfidenceInterval is the fixed band quoted with every prediction.
const ConfidenceInterval = "±15%"

const confidenceSpread = 0.15

// Prediction is the expected outcome of spending budget on a channel.
type Prediction struct {
	Channel            string  `json:"channel"`
	Budget             float64 `json:"budget"`
	Impressions        int64   `json:"predicted_impressions"`
	Clicks             int64   `json:"predicted_clicks"`
	Conversions        int64   `json:"predicted_conversions"`
	Revenue            float64 `json:"predicted_revenue"`
	RevenueLow         float64 `json:"predicted_revenue_low"`
	RevenueHigh        float64 `json:"predicted_revenue_high"`
	ROAS               float64 `json:"predicted_roas"`
	ConfidenceInterval string  `json:"confidence_interval"`
	SampleDays         int     `json:"sample_days"`
}

// Predict extrapolates budget from the channel's mean historical CPM, CTR
// and CVR. A zero ltv means DefaultLTV. Counts are truncated toward zero;
// money is rounded to cents.
func Predict(budget float64, channel string, history []model.CampaignDay, ltv float64) (Prediction, error) {
	if ltv == 0 {
		ltv = DefaultLTV
	}
	if !(budget > 0) || !(ltv > 0) {
		return Prediction{}, ErrInvalidPredictInput
	}
	if len(history) == 0 {
		return Prediction{}, ErrNoHistory
	}
	var cpms, ctrs, cvrs []float64
	for _, d := range history {
		if d.Channel != channel {
			continue
		}
		cpms = append(cpms, d.CPM())
		ctrs = append(ctrs, d.CTR())
		cvrs = append(cvrs, d.CVR())
	}
	if len(cpms) == 0 {
		return Prediction{}, fmt.Errorf("%w: %s", ErrNoChannelHistory, channel)
	}

	cpm, err := stats.Mean(cpms)
	if err != nil {
		return Prediction{}, fmt.Errorf("mean cpm: %w", err)
	}
	if cpm == 0 {
		return Prediction{}, fmt.Errorf("%w: %s", ErrDegenerateHistory, channel)
	}
	ctr, err := stats.Mean(ctrs)
	if err != nil {
		return Prediction{}, fmt.Errorf("mean ctr: %w", err)
	}
	cvr, err := stats.Mean(cvrs)
	if err != nil {
		return Prediction{}, fmt.Errorf("mean cvr: %w", err)
	}

	impressions := budget / cpm * 1000
	clicks := impressions * ctr
	conversions := clicks * cvr
	revenue := conversions * ltv

	return Prediction{
		Channel:            channel,
		Budget:             budget,
		Impressions:        int64(impressions),
		Clicks:             int64(clicks),
		Conversions:        int64(conversions),
		Revenue:            round2(revenue),
		RevenueLow:         round2(revenue * (1 - confidenceSpread)),
		RevenueHigh:        round2(revenue * (1 + confidenceSpread)),
		ROAS:               round2(revenue / budget),
		ConfidenceInterval: ConfidenceInterval,
		SampleDays:         len(cpms),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
