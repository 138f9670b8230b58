package attribution

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
)

// Journey is the ordered touchpoint history of one conversion.
type Journey struct {
	Touchpoints  []model.Touchpoint `json:"touchpoints"`
	ConversionAt time.Time          `json:"conversion_at"`
}

// Report is the outcome of attributing one journey.
type Report struct {
	Model       Kind     `json:"model"`
	Credits     Credits  `json:"credits"`
	Touchpoints int      `json:"touchpoints"`
	Dropped     int      `json:"dropped"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Engine applies the lookback filter and an attribution model to journeys.
// It is safe for concurrent use.
type Engine struct {
	lookback   time.Duration
	halfLife   float64
	firstLast  float64
	permissive bool
	log        logger.Logger

	models map[Kind]Model
}

// NewEngine builds the five models from the configured parameters.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		lookback:  DefaultLookback,
		halfLife:  DefaultHalfLife,
		firstLast: DefaultFirstLastWeight,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.lookback < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLookback, e.lookback)
	}

	td, err := NewTimeDecay(e.halfLife)
	if err != nil {
		return nil, err
	}
	us, err := NewUShaped(e.firstLast, e.permissive)
	if err != nil {
		return nil, err
	}
	if w := us.Warnings(); len(w) > 0 {
		e.log.Warn(context.Background(), "u-shaped model accepts an out-of-range weight",
			logger.Float64("first_last_weight", e.firstLast))
	}

	e.models = map[Kind]Model{
		KindFirstClick: FirstClick{},
		KindLastClick:  LastClick{},
		KindLinear:     Linear{},
		KindTimeDecay:  td,
		KindUShaped:    us,
	}
	return e, nil
}

// Model returns the configured model for kind.
func (e *Engine) Model(kind Kind) (Model, error) {
	m, ok := e.models[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, kind)
	}
	return m, nil
}

// Lookback returns the configured window.
func (e *Engine) Lookback() time.Duration { return e.lookback }

// filter applies the lookback when the journey has a conversion time.
func (e *Engine) filter(j Journey) []model.Touchpoint {
	if j.ConversionAt.IsZero() {
		return j.Touchpoints
	}
	return Lookback(j.Touchpoints, j.ConversionAt, e.lookback)
}

// Attribute credits the journey with the selected model.
func (e *Engine) Attribute(ctx context.Context, kind Kind, j Journey) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	m, err := e.Model(kind)
	if err != nil {
		return Report{}, err
	}
	tps := e.filter(j)
	return e.run(ctx, m, tps, len(j.Touchpoints)-len(tps)), nil
}

// Compare runs every model over the same filtered journey.
func (e *Engine) Compare(ctx context.Context, j Journey) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tps := e.filter(j)
	dropped := len(j.Touchpoints) - len(tps)
	out := make([]Report, 0, len(e.models))
	for _, kind := range Kinds() {
		out = append(out, e.run(ctx, e.models[kind], tps, dropped))
	}
	return out, nil
}

func (e *Engine) run(ctx context.Context, m Model, tps []model.Touchpoint, dropped int) Report {
	r := Report{
		Model:       m.Kind(),
		Credits:     m.Credit(tps),
		Touchpoints: len(tps),
		Dropped:     dropped,
	}
	if w, ok := m.(warner); ok && len(tps) >= 3 {
		r.Warnings = w.Warnings()
		for _, msg := range r.Warnings {
			e.log.Warn(ctx, msg, logger.String("model", string(r.Model)), logger.Int("touchpoints", len(tps)))
		}
	}
	return r
}
