// Package attribution distributes conversion credit across the channels of
// a customer journey.
package attribution

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/admetrics/internal/domain/model"
)

// Kind names an attribution model.
type Kind string

// Supported models.
const (
	KindFirstClick Kind = "first_click"
	KindLastClick  Kind = "last_click"
	KindLinear     Kind = "linear"
	KindTimeDecay  Kind = "time_decay"
	KindUShaped    Kind = "u_shaped"
)

// Kinds lists the models in comparison order.
func Kinds() []Kind {
	return []Kind{KindFirstClick, KindLastClick, KindLinear, KindTimeDecay, KindUShaped}
}

// ParseKind maps a model name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Defaults.
const (
	DefaultHalfLife        = 7.0
	DefaultFirstLastWeight = 0.4
)

// Credits maps a channel to its share of one conversion.
type Credits map[string]float64

// Sum adds up every share.
func (c Credits) Sum() float64 {
	var s float64
	for _, v := range c {
		s += v
	}
	return s
}

// Channels returns the credited channels sorted by name.
func (c Credits) Channels() []string {
	out := make([]string, 0, len(c))
	for ch := range c {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Model assigns credit to the touchpoints of one journey. The slice order is
// the journey order. An empty journey yields empty credits.
type Model interface {
	Kind() Kind
	Credit(tps []model.Touchpoint) Credits
}

// warner is implemented by models whose configuration deserves a caller-visible warning.
type warner interface {
	Warnings() []string
}

// FirstClick gives all credit to the first touchpoint.
type FirstClick struct{}

func (FirstClick) Kind() Kind { return KindFirstClick }

func (FirstClick) Credit(tps []model.Touchpoint) Credits {
	if len(tps) == 0 {
		return Credits{}
	}
	return Credits{tps[0].Channel: 1}
}

// LastClick gives all credit to the last touchpoint.
type LastClick struct{}

func (LastClick) Kind() Kind { return KindLastClick }

func (LastClick) Credit(tps []model.Touchpoint) Credits {
	if len(tps) == 0 {
		return Credits{}
	}
	return Credits{tps[len(tps)-1].Channel: 1}
}

// Linear splits credit equally between touchpoints.
type Linear struct{}

func (Linear) Kind() Kind { return KindLinear }

func (Linear) Credit(tps []model.Touchpoint) Credits {
	out := Credits{}
	if len(tps) == 0 {
		return out
	}
	each := 1 / float64(len(tps))
	for _, tp := range tps {
		out[tp.Channel] += each
	}
	return out
}

// TimeDecay favours touchpoints close to the conversion. Recency is measured
// in positions, not wall-clock time: the i-th of n touchpoints weighs
// 0.5^((n-1-i)/halfLife) before normalisation.
type TimeDecay struct {
	halfLife float64
}

// NewTimeDecay validates halfLife.
func NewTimeDecay(halfLife float64) (TimeDecay, error) {
	if halfLife <= 0 || math.IsNaN(halfLife) || math.IsInf(halfLife, 0) {
		return TimeDecay{}, fmt.Errorf("%w: %g", ErrInvalidHalfLife, halfLife)
	}
	return TimeDecay{halfLife: halfLife}, nil
}

func (TimeDecay) Kind() Kind { return KindTimeDecay }

// HalfLife returns the configured half-life in positions.
func (t TimeDecay) HalfLife() float64 { return t.halfLife }

func (t TimeDecay) Credit(tps []model.Touchpoint) Credits {
	out := Credits{}
	n := len(tps)
	if n == 0 {
		return out
	}
	weights := make([]float64, n)
	for i := range tps {
		weights[i] = math.Pow(0.5, float64(n-1-i)/t.halfLife)
	}
	floats.Scale(1/floats.Sum(weights), weights)
	for i, tp := range tps {
		out[tp.Channel] += weights[i]
	}
	return out
}

// UShaped gives firstLast to each end of the journey and splits the rest
// over the interior. Journeys of one or two touchpoints split evenly.
type UShaped struct {
	firstLast  float64
	permissive bool
}

// NewUShaped validates the first/last weight. A permissive model accepts
// weights outside [0, 0.5] and reports them through Warnings.
func NewUShaped(firstLast float64, permissive bool) (UShaped, error) {
	if math.IsNaN(firstLast) || math.IsInf(firstLast, 0) {
		return UShaped{}, fmt.Errorf("%w: %g", ErrFirstLastWeightRange, firstLast)
	}
	if !permissive && (firstLast < 0 || firstLast > 0.5) {
		return UShaped{}, fmt.Errorf("%w: %g", ErrFirstLastWeightRange, firstLast)
	}
	return UShaped{firstLast: firstLast, permissive: permissive}, nil
}

func (UShaped) Kind() Kind { return KindUShaped }

// FirstLastWeight returns the weight given to each end of the journey.
func (u UShaped) FirstLastWeight() float64 { return u.firstLast }

// Warnings reports an out-of-range weight accepted in permissive mode.
func (u UShaped) Warnings() []string {
	if u.firstLast >= 0 && u.firstLast <= 0.5 {
		return nil
	}
	return []string{fmt.Sprintf(
		"first/last weight %.2f is outside [0, 0.5]; interior touchpoints receive %.2f in total",
		u.firstLast, 1-2*u.firstLast)}
}

func (u UShaped) Credit(tps []model.Touchpoint) Credits {
	out := Credits{}
	n := len(tps)
	switch n {
	case 0:
		return out
	case 1:
		out[tps[0].Channel] = 1
		return out
	case 2:
		out[tps[0].Channel] += 0.5
		out[tps[1].Channel] += 0.5
		return out
	}
	out[tps[0].Channel] += u.firstLast
	out[tps[n-1].Channel] += u.firstLast
	interior := (1 - 2*u.firstLast) / float64(n-2)
	for _, tp := range tps[1 : n-1] {
		out[tp.Channel] += interior
	}
	return out
}
