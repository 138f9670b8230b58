package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/admetrics/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func validDay() model.CampaignDay {
	return model.CampaignDay{
		ID:          "d-1",
		Channel:     "google_ads",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Spend:       1200,
		Impressions: 100_000,
		Clicks:      2_500,
		Conversions: 50,
		Revenue:     29_950,
	}
}

func TestCampaignDayDerived(t *testing.T) {
	convey.Convey("Given a campaign day", t, func() {
		d := validDay()

		convey.Convey("Then the derived rates are computed from the raw counts", func() {
			convey.So(d.CPM(), convey.ShouldAlmostEqual, 12.0, 1e-9)
			convey.So(d.CTR(), convey.ShouldAlmostEqual, 0.025, 1e-9)
			convey.So(d.CVR(), convey.ShouldAlmostEqual, 0.02, 1e-9)
			convey.So(d.ROAS(), convey.ShouldAlmostEqual, 24.958333, 1e-6)
		})

		convey.Convey("When the denominators are zero", func() {
			z := model.CampaignDay{}

			convey.Convey("Then every rate is zero", func() {
				convey.So(z.CPM(), convey.ShouldEqual, 0)
				convey.So(z.CTR(), convey.ShouldEqual, 0)
				convey.So(z.CVR(), convey.ShouldEqual, 0)
				convey.So(z.ROAS(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestCampaignDayValidate(t *testing.T) {
	convey.Convey("Given campaign days", t, func() {
		convey.So(validDay().Validate(), convey.ShouldBeNil)

		broken := []func(d *model.CampaignDay){
			func(d *model.CampaignDay) { d.ID = "" },
			func(d *model.CampaignDay) { d.Channel = "" },
			func(d *model.CampaignDay) { d.Date = time.Time{} },
			func(d *model.CampaignDay) { d.Spend = -1 },
			func(d *model.CampaignDay) { d.Conversions = -1 },
			func(d *model.CampaignDay) { d.Clicks = d.Impressions + 1 },
		}
		for _, mutate := range broken {
			d := validDay()
			mutate(&d)
			err := d.Validate()
			convey.So(errors.Is(err, model.ErrInvalidCampaignDay), convey.ShouldBeTrue)
		}
	})
}

func TestTiersAndPerformance(t *testing.T) {
	convey.Convey("Given the default tiers", t, func() {
		tiers := model.DefaultTiers()

		convey.So(tiers["basic"].LTV(), convey.ShouldEqual, 1794)
		convey.So(tiers["pro"].LTV(), convey.ShouldEqual, 7188)
		convey.So(tiers["enterprise"].LTV(), convey.ShouldEqual, 17982)
		convey.So(tiers["basic"].Name, convey.ShouldEqual, "Basic")
		convey.So(tiers["pro"].Name, convey.ShouldEqual, "Pro")
		convey.So(tiers["enterprise"].Name, convey.ShouldEqual, "Enterprise")
	})

	convey.Convey("Given channel performance values", t, func() {
		convey.So(model.ChannelPerformance{ROAS: 5, ConversionRate: 0.03, VolumePotential: 80}.Valid(), convey.ShouldBeTrue)
		convey.So(model.ChannelPerformance{ROAS: -1}.Valid(), convey.ShouldBeFalse)
	})
}
