package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/admetrics/internal/app"
	"github.com/okian/admetrics/internal/config"
	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/attribution"
	"github.com/okian/admetrics/internal/domain/kpi"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/internal/domain/optimizer"
	"github.com/okian/admetrics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given default options", t, func() {
		svc, err := service.New()
		So(err, ShouldBeNil)
		So(svc, ShouldNotBeNil)
	})

	Convey("Given options built from the default config", t, func() {
		svc, err := service.New(service.OptionsFromConfig(config.New())...)
		So(err, ShouldBeNil)
		So(svc, ShouldNotBeNil)
	})

	Convey("Given invalid domain options", t, func() {
		Convey("When the half-life is not positive", func() {
			_, err := service.New(service.WithAttributionOptions(attribution.WithHalfLife(0)))
			So(errors.Is(err, attribution.ErrInvalidHalfLife), ShouldBeTrue)
		})

		Convey("When the share bounds are inverted", func() {
			_, err := service.New(service.WithAllocationOptions(allocation.WithShareBounds(0.5, 0.2)))
			So(errors.Is(err, allocation.ErrInvalidBounds), ShouldBeTrue)
		})

		Convey("When the prediction tier is unknown", func() {
			_, err := service.New(service.WithPredictionTier("platinum"))
			So(errors.Is(err, service.ErrUnknownTier), ShouldBeTrue)
		})
	})
}

func TestService_Calculations(t *testing.T) {
	Convey("Given a service", t, func() {
		svc, err := service.New()
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When computing ROAS", func() {
			res, err := svc.KPI(ctx, "roas", kpi.Inputs{Revenue: 359400, Spend: 10000})
			So(err, ShouldBeNil)
			So(res.Value, ShouldAlmostEqual, 35.94, 1e-9)
			So(res.Band, ShouldEqual, kpi.Band("excellent"))
		})

		Convey("When the metric is unknown", func() {
			_, err := svc.KPI(ctx, "reach", kpi.Inputs{})
			So(errors.Is(err, kpi.ErrUnknownMetric), ShouldBeTrue)
		})

		Convey("When inputs are negative", func() {
			_, err := svc.KPI(ctx, "cpa", kpi.Inputs{Spend: -1, Conversions: 3})
			So(err, ShouldEqual, kpi.ErrNegativeInput)
		})

		Convey("When attributing a journey linearly", func() {
			j := attribution.Journey{Touchpoints: []model.Touchpoint{
				{Channel: "google_ads"}, {Channel: "linkedin"}, {Channel: "google_ads"}, {Channel: "email"},
			}}
			report, err := svc.Attribute(ctx, "linear", j)
			So(err, ShouldBeNil)
			So(report.Credits["google_ads"], ShouldAlmostEqual, 0.5, 1e-9)
			So(report.Credits.Sum(), ShouldAlmostEqual, 1, 1e-9)

			Convey("And comparing every model", func() {
				reports, err := svc.CompareAttribution(ctx, j)
				So(err, ShouldBeNil)
				So(len(reports), ShouldEqual, len(attribution.Kinds()))
			})
		})

		Convey("When the attribution model is unknown", func() {
			_, err := svc.Attribute(ctx, "w_shaped", attribution.Journey{})
			So(errors.Is(err, attribution.ErrUnknownModel), ShouldBeTrue)
		})

		Convey("When allocating a budget", func() {
			plan, err := svc.Allocate(ctx, 350000, map[string]model.ChannelPerformance{
				"google_ads": {ROAS: 35.94, ConversionRate: 0.089, VolumePotential: 0.8},
				"linkedin":   {ROAS: 12.5, ConversionRate: 0.045, VolumePotential: 0.6},
				"facebook":   {ROAS: 8.2, ConversionRate: 0.032, VolumePotential: 0.9},
			})
			So(err, ShouldBeNil)
			var total float64
			for _, sh := range plan.Shares {
				total += sh.Budget
			}
			So(total, ShouldAlmostEqual, 350000, 0.01)
		})

		Convey("When allocating a non-positive budget", func() {
			_, err := svc.Allocate(ctx, 0, map[string]model.ChannelPerformance{"a": {ROAS: 1}})
			So(errors.Is(err, allocation.ErrInvalidBudget), ShouldBeTrue)
		})

		Convey("When suggesting bids", func() {
			out := svc.SuggestBids(ctx, map[string]optimizer.BidInput{"google_ads": {ROAS: 6, CurrentBid: 2}})
			So(len(out), ShouldEqual, 1)
			So(out[0].SuggestedBid, ShouldAlmostEqual, 2.4, 1e-9)
		})

		Convey("When capping frequency with the configured default", func() {
			out, err := svc.CapFrequency(ctx, map[string]int{"u1": 10, "u2": 3}, 0)
			So(err, ShouldBeNil)
			So(out[0].Status, ShouldEqual, optimizer.StatusCapped)
			So(out[1].Remaining, ShouldEqual, 7)
		})

		Convey("When ingestion calls are made before Start", func() {
			_, err := svc.Submit(ctx, nil)
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = svc.Predict(ctx, 1000, "google_ads", 0)
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.Stats(ctx).Started, ShouldBeFalse)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, err := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)

		st := svc.Stats(ctx)
		So(st.Started, ShouldBeTrue)
		So(st.WorkerCount, ShouldEqual, 2)
		So(st.QueueCapacity, ShouldEqual, 16)

		Convey("When history reads race with Stop", func() {
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 200; j++ {
						if _, err := svc.History(ctx, ""); err != nil && !errors.Is(err, service.ErrNotStarted) {
							panic(err)
						}
						if _, err := svc.Channels(ctx); err != nil && !errors.Is(err, service.ErrNotStarted) {
							panic(err)
						}
					}
				}()
			}
			So(svc.Stop(ctx), ShouldBeNil)
			wg.Wait()

			Convey("Then reads after Stop report ErrNotStarted", func() {
				_, err := svc.History(ctx, "google_ads")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Channels(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Predict(ctx, 1000, "google_ads", 0)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When stopping it twice", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stats(ctx).Started, ShouldBeFalse)

			Convey("Then it can be started again with an empty store", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Stats(ctx).Records, ShouldEqual, 0)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}
