package allocation_test

import (
	"errors"
	"testing"

	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sumBudgets(p allocation.Plan) float64 {
	var s float64
	for _, sh := range p.Shares {
		s += sh.Budget
	}
	return s
}

func TestAllocate(t *testing.T) {
	Convey("Given a default allocator", t, func() {
		a, err := allocation.New()
		So(err, ShouldBeNil)

		Convey("When scoring a channel", func() {
			s := a.Score(model.ChannelPerformance{ROAS: 4, ConversionRate: 0.05, VolumePotential: 10})
			So(s, ShouldAlmostEqual, 0.5*4+0.3*5+0.2*10, 1e-12)
		})

		Convey("When five channels compete for a quarterly budget", func() {
			channels := map[string]model.ChannelPerformance{
				"google_ads": {ROAS: 4.2, ConversionRate: 0.035, VolumePotential: 9},
				"linkedin":   {ROAS: 3.1, ConversionRate: 0.022, VolumePotential: 6},
				"facebook":   {ROAS: 2.4, ConversionRate: 0.018, VolumePotential: 8},
				"indeed":     {ROAS: 5.5, ConversionRate: 0.041, VolumePotential: 7},
				"display":    {ROAS: 1.2, ConversionRate: 0.006, VolumePotential: 5},
			}
			plan, err := a.Allocate(350_000, channels)
			So(err, ShouldBeNil)

			Convey("Then the budgets sum to the total", func() {
				So(sumBudgets(plan), ShouldAlmostEqual, 350_000, 0.01)
				So(plan.Shares, ShouldHaveLength, 5)
				So(plan.Shares[0].Channel, ShouldEqual, "display")
			})

			Convey("Then every clamped share respects the bounds", func() {
				for _, s := range plan.Shares {
					So(s.Clamped, ShouldBeGreaterThanOrEqualTo, 35_000-0.01)
					So(s.Clamped, ShouldBeLessThanOrEqualTo, 140_000+0.01)
				}
			})

			Convey("Then the best channel gets the largest clamped share", func() {
				indeed, _ := plan.Share("indeed")
				display, _ := plan.Share("display")
				So(indeed.Clamped, ShouldBeGreaterThan, display.Clamped)
				So(display.Clamped, ShouldEqual, 35_000)
			})
		})

		Convey("When only two channels exist", func() {
			plan, err := a.Allocate(1000, map[string]model.ChannelPerformance{
				"b": {ROAS: 3, ConversionRate: 0.02, VolumePotential: 5},
				"a": {ROAS: 3, ConversionRate: 0.02, VolumePotential: 5},
			})
			So(err, ShouldBeNil)

			Convey("Then the residual lands on the first tied channel and breaches the cap", func() {
				first, _ := plan.Share("a")
				second, _ := plan.Share("b")
				So(first.Clamped, ShouldEqual, 400)
				So(first.Budget, ShouldEqual, 600)
				So(second.Budget, ShouldEqual, 400)
				So(plan.Adjusted, ShouldEqual, "a")
				So(plan.Adjustment, ShouldAlmostEqual, 200, 1e-9)
				So(plan.CapBreached, ShouldBeTrue)
				So(plan.Warnings, ShouldHaveLength, 1)
				So(first.Percentage, ShouldEqual, 60)
				So(sumBudgets(plan), ShouldAlmostEqual, 1000, 1e-9)
			})
		})

		Convey("When the total is not a whole number of cents", func() {
			channels := map[string]model.ChannelPerformance{}
			for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
				channels[name] = model.ChannelPerformance{ROAS: 2, ConversionRate: 0.01, VolumePotential: 3}
			}
			plan, err := a.Allocate(1.234, channels)
			So(err, ShouldBeNil)

			Convey("Then every clamped amount stays within the share bounds", func() {
				for _, s := range plan.Shares {
					So(s.Clamped, ShouldBeGreaterThanOrEqualTo, 0.1*1.234)
					So(s.Clamped, ShouldBeLessThanOrEqualTo, 0.4*1.234)
					So(s.Clamped, ShouldEqual, 0.13)
				}
				So(sumBudgets(plan), ShouldAlmostEqual, 1.234, 1e-9)
				So(plan.Adjusted, ShouldEqual, "a")
			})
		})

		Convey("When the share window is narrower than a cent", func() {
			b, err := allocation.New(allocation.WithShareBounds(0.25, 0.25))
			So(err, ShouldBeNil)
			plan, err := b.Allocate(1.234, map[string]model.ChannelPerformance{
				"a": {ROAS: 1}, "b": {ROAS: 2}, "c": {ROAS: 3}, "d": {ROAS: 4},
			})
			So(err, ShouldBeNil)
			for _, s := range plan.Shares {
				So(s.Clamped, ShouldAlmostEqual, 0.3085, 1e-12)
			}
			So(plan.CapBreached, ShouldBeFalse)
		})

		Convey("When a single channel exists", func() {
			plan, err := a.Allocate(500, map[string]model.ChannelPerformance{"email": {ROAS: 2}})
			So(err, ShouldBeNil)
			So(plan.Shares[0].Budget, ShouldEqual, 500)
			So(plan.CapBreached, ShouldBeTrue)
		})

		Convey("When the inputs are invalid", func() {
			ok := map[string]model.ChannelPerformance{"a": {ROAS: 1}}

			_, err := a.Allocate(0, ok)
			So(errors.Is(err, allocation.ErrInvalidBudget), ShouldBeTrue)
			_, err = a.Allocate(-10, ok)
			So(errors.Is(err, allocation.ErrInvalidBudget), ShouldBeTrue)
			_, err = a.Allocate(100, nil)
			So(err, ShouldEqual, allocation.ErrNoChannels)
			_, err = a.Allocate(100, map[string]model.ChannelPerformance{"a": {ROAS: -1}})
			So(errors.Is(err, allocation.ErrInvalidPerformance), ShouldBeTrue)
			_, err = a.Allocate(100, map[string]model.ChannelPerformance{"a": {}, "b": {}})
			So(err, ShouldEqual, allocation.ErrNoSignal)
		})
	})
}

func TestAllocatorOptions(t *testing.T) {
	Convey("Given custom allocator options", t, func() {
		Convey("When the bounds are invalid", func() {
			for _, b := range [][2]float64{{-0.1, 0.4}, {0.1, 1.2}, {0.5, 0.2}} {
				_, err := allocation.New(allocation.WithShareBounds(b[0], b[1]))
				So(errors.Is(err, allocation.ErrInvalidBounds), ShouldBeTrue)
			}
		})

		Convey("When the weights are negative", func() {
			_, err := allocation.New(allocation.WithWeights(-1, 0, 0))
			So(err, ShouldEqual, allocation.ErrInvalidWeights)
		})

		Convey("When the bounds are wide and scoring is ROAS only", func() {
			a, err := allocation.New(allocation.WithShareBounds(0, 1), allocation.WithWeights(1, 0, 0))
			So(err, ShouldBeNil)
			lo, hi := a.Bounds()
			So(lo, ShouldEqual, 0)
			So(hi, ShouldEqual, 1)

			plan, err := a.Allocate(900, map[string]model.ChannelPerformance{
				"a": {ROAS: 1}, "b": {ROAS: 2},
			})
			So(err, ShouldBeNil)
			b, _ := plan.Share("b")
			So(b.Budget, ShouldEqual, 600)
			So(plan.CapBreached, ShouldBeFalse)
			So(plan.Adjusted, ShouldBeEmpty)
		})
	})
}
