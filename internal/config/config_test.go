package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/admetrics/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.HistoryBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.LookbackDays, convey.ShouldEqual, 30)
			convey.So(cfg.HalfLifeDays, convey.ShouldEqual, 7)
			convey.So(cfg.FirstLastWeight, convey.ShouldEqual, 0.4)
			convey.So(cfg.MinShare, convey.ShouldEqual, 0.10)
			convey.So(cfg.MaxShare, convey.ShouldEqual, 0.40)
			convey.So(cfg.FrequencyCap, convey.ShouldEqual, 10)
		})

		convey.Convey("Then the default tiers match the published pricing", func() {
			convey.So(cfg.Tiers, convey.ShouldHaveLength, 3)
			convey.So(cfg.Tiers["pro"].MonthlyPrice, convey.ShouldEqual, 599)
			convey.So(cfg.Tiers["pro"].AvgLifetimeMonths, convey.ShouldEqual, 12)
			convey.So(cfg.Tiers["pro"].Name, convey.ShouldEqual, "Pro")
			convey.So(cfg.Tiers["enterprise"].TypicalJobsPosted, convey.ShouldEqual, 20)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single broken field", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":            func(c *config.Config) { c.Addr = "" },
			"zero queue":            func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":          func(c *config.Config) { c.WorkerCount = 0 },
			"negative dedupe":       func(c *config.Config) { c.DedupeSize = -1 },
			"unknown backend":       func(c *config.Config) { c.HistoryBackend = "redis" },
			"postgres without url":  func(c *config.Config) { c.HistoryBackend = config.BackendPostgres },
			"negative lookback":     func(c *config.Config) { c.LookbackDays = -1 },
			"zero half life":        func(c *config.Config) { c.HalfLifeDays = 0 },
			"inverted share bounds": func(c *config.Config) { c.MinShare, c.MaxShare = 0.5, 0.2 },
			"share above one":       func(c *config.Config) { c.MaxShare = 1.5 },
			"zero frequency cap":    func(c *config.Config) { c.FrequencyCap = 0 },
			"unknown tier":          func(c *config.Config) { c.PredictionTier = "gold" },
		}

		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a postgres backend with a url", t, func() {
		cfg := config.New()
		cfg.HistoryBackend = config.BackendPostgres
		cfg.PostgresURL = "postgres://localhost/admetrics"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
