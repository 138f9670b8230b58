// Package kpi computes advertising KPIs and classifies them against fixed
// benchmark tables.
package kpi

import (
	"encoding/json"
	"math"
)

// Metric names a KPI.
type Metric string

// Supported metrics.
const (
	MetricROAS          Metric = "roas"
	MetricROI           Metric = "roi"
	MetricCPA           Metric = "cpa"
	MetricCPM           Metric = "cpm"
	MetricCPC           Metric = "cpc"
	MetricCTR           Metric = "ctr"
	MetricCVR           Metric = "cvr"
	MetricLTV           Metric = "ltv"
	MetricCAC           Metric = "cac"
	MetricMER           Metric = "mer"
	MetricBreakEvenROAS Metric = "breakeven_roas"
	MetricLTVToCAC      Metric = "ltv_cac"
)

// Metrics lists every supported metric in a stable order.
func Metrics() []Metric {
	return []Metric{
		MetricROAS, MetricROI, MetricCPA, MetricCPM, MetricCPC, MetricCTR,
		MetricCVR, MetricLTV, MetricCAC, MetricMER, MetricBreakEvenROAS, MetricLTVToCAC,
	}
}

// ParseMetric maps a metric name to a Metric.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrUnknownMetric
}

// Band is a benchmark classification label such as "good" or "high".
type Band string

// Status tells whether Value is a regular number or a sentinel.
type Status string

const (
	// StatusOK means Value was computed normally.
	StatusOK Status = "ok"
	// StatusUndefined means an input made the metric meaningless and Value is 0.
	StatusUndefined Status = "undefined"
	// StatusInfinite means a zero denominator produced +Inf.
	StatusInfinite Status = "infinite"
)

// Result is a computed KPI with its interpretation.
type Result struct {
	Metric  Metric
	Value   float64
	Band    Band
	Message string
	Status  Status
}

// Defined reports whether the value is a regular number.
func (r Result) Defined() bool { return r.Status == StatusOK }

type resultJSON struct {
	Metric  Metric   `json:"metric"`
	Value   *float64 `json:"value"`
	Band    Band     `json:"band,omitempty"`
	Message string   `json:"message"`
	Status  Status   `json:"status"`
}

// MarshalJSON encodes non-finite values as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Metric: r.Metric, Band: r.Band, Message: r.Message, Status: r.Status}
	if !math.IsInf(r.Value, 0) && !math.IsNaN(r.Value) {
		v := r.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func undefined(m Metric, msg string) Result {
	return Result{Metric: m, Value: 0, Message: msg, Status: StatusUndefined}
}

func infinite(m Metric, msg string) Result {
	return Result{Metric: m, Value: math.Inf(1), Message: msg, Status: StatusInfinite}
}
