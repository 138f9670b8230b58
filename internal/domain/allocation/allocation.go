// Package allocation splits a total budget across channels in proportion to
// an efficiency score.
package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/admetrics/internal/domain/model"
)

// Default configuration constants.
const (
	DefaultMinShare = 0.10
	DefaultMaxShare = 0.40

	defaultROASWeight   = 0.5
	defaultCVRWeight    = 0.3
	defaultVolumeWeight = 0.2
)

// Weights are the coefficients of the efficiency score.
type Weights struct {
	ROAS   float64 `json:"roas"`
	CVR    float64 `json:"cvr"`
	Volume float64 `json:"volume"`
}

// Share is one channel's slice of the plan.
type Share struct {
	Channel    string  `json:"channel"`
	Score      float64 `json:"efficiency_score"`
	Clamped    float64 `json:"clamped"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
}

// Plan is the result of an allocation. Shares are sorted by channel.
type Plan struct {
	Total       float64  `json:"total"`
	Shares      []Share  `json:"shares"`
	Adjusted    string   `json:"adjusted,omitempty"`
	Adjustment  float64  `json:"adjustment"`
	CapBreached bool     `json:"cap_breached"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Share returns the share for channel.
func (p Plan) Share(channel string) (Share, bool) {
	for _, s := range p.Shares {
		if s.Channel == channel {
			return s, true
		}
	}
	return Share{}, false
}

// Allocator computes budget plans. It is immutable and safe for concurrent use.
type Allocator struct {
	minShare float64
	maxShare float64
	weights  Weights
}

// New creates an Allocator and validates its configuration.
func New(opts ...Option) (*Allocator, error) {
	a := &Allocator{
		minShare: DefaultMinShare,
		maxShare: DefaultMaxShare,
		weights:  Weights{ROAS: defaultROASWeight, CVR: defaultCVRWeight, Volume: defaultVolumeWeight},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.minShare < 0 || a.maxShare > 1 || a.minShare > a.maxShare {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, a.minShare, a.maxShare)
	}
	if a.weights.ROAS < 0 || a.weights.CVR < 0 || a.weights.Volume < 0 {
		return nil, ErrInvalidWeights
	}
	return a, nil
}

// Bounds returns the configured share clamp.
func (a *Allocator) Bounds() (minShare, maxShare float64) { return a.minShare, a.maxShare }

// Score is the weighted efficiency of one channel. ConversionRate is a
// fraction and is scaled to percent.
func (a *Allocator) Score(p model.ChannelPerformance) float64 {
	return a.weights.ROAS*p.ROAS + a.weights.CVR*100*p.ConversionRate + a.weights.Volume*p.VolumePotential
}

// Allocate splits total across channels. Each raw share is clamped to
// [minShare, maxShare] of total and rounded to cents. The rounding and clamp
// residual is then added to the single largest channel, which may push it
// outside the bounds; that case is flagged with CapBreached.
func (a *Allocator) Allocate(total float64, channels map[string]model.ChannelPerformance) (Plan, error) {
	if !(total > 0) || math.IsInf(total, 0) {
		return Plan{}, fmt.Errorf("%w: %g", ErrInvalidBudget, total)
	}
	if len(channels) == 0 {
		return Plan{}, ErrNoChannels
	}

	names := make([]string, 0, len(channels))
	for name, p := range channels {
		if !p.Valid() {
			return Plan{}, fmt.Errorf("%w: %s", ErrInvalidPerformance, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	shares := make([]Share, len(names))
	var sum float64
	for i, name := range names {
		s := a.Score(channels[name])
		shares[i] = Share{Channel: name, Score: s}
		sum += s
	}
	if sum <= 0 {
		return Plan{}, ErrNoSignal
	}

	lo, hi := a.minShare*total, a.maxShare*total
	// Cent-aligned bounds keep rounded amounts inside [lo, hi]. A window
	// narrower than a cent cannot hold a rounded amount, so it stays unrounded.
	loC, hiC := ceilCents(lo), floorCents(hi)
	subCent := loC > hiC
	var allocated float64
	largest := 0
	for i := range shares {
		raw := total * shares[i].Score / sum
		var clamped float64
		if subCent {
			clamped = math.Min(hi, math.Max(lo, raw))
		} else {
			clamped = math.Min(hiC, math.Max(loC, roundCents(raw)))
		}
		shares[i].Clamped = clamped
		shares[i].Budget = clamped
		allocated += clamped
		// names are sorted, so strict > keeps the lexicographically first on ties
		if clamped > shares[largest].Clamped {
			largest = i
		}
	}

	plan := Plan{Total: total, Shares: shares}
	if residual := total - allocated; math.Abs(residual) > 1e-9 {
		s := &shares[largest]
		s.Budget += residual
		plan.Adjusted = s.Channel
		plan.Adjustment = residual
		if s.Budget > hi+0.005 || s.Budget < lo-0.005 {
			plan.CapBreached = true
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"%s receives %.2f%% of the budget after absorbing %.2f, outside the [%.0f%%, %.0f%%] bounds",
				s.Channel, s.Budget/total*100, residual, a.minShare*100, a.maxShare*100))
		}
	}
	for i := range shares {
		shares[i].Score = math.Round(shares[i].Score*100) / 100
		shares[i].Percentage = math.Round(shares[i].Budget/total*1000) / 10
	}
	return plan, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// centEpsilon absorbs float noise such as 0.1*350000*100 = 3500000.0000000005.
const centEpsilon = 1e-6

func ceilCents(v float64) float64 {
	return math.Ceil(v*100-centEpsilon) / 100
}

func floorCents(v float64) float64 {
	return math.Floor(v*100+centEpsilon) / 100
}
