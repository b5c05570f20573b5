package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/hydroskill/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.DateLayout, convey.ShouldEqual, "02/01/2006 15:04")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		cases := map[string]func(*config.Config){
			"addr":                  func(c *config.Config) { c.Addr = "" },
			"log_format":            func(c *config.Config) { c.LogFormat = "xml" },
			"queue_size":            func(c *config.Config) { c.QueueSize = 0 },
			"worker_count":          func(c *config.Config) { c.WorkerCount = -1 },
			"dedupe_size":           func(c *config.Config) { c.DedupeSize = -1 },
			"max_runs":              func(c *config.Config) { c.MaxRuns = -1 },
			"max_leaderboard_limit": func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"max_series_length":     func(c *config.Config) { c.MaxSeriesLength = 0 },
			"date_layout":           func(c *config.Config) { c.DateLayout = "" },
			"skip_leading":          func(c *config.Config) { c.SkipLeading = -2 },
		}

		convey.Convey("Then each is rejected naming the key", func() {
			for key, mutate := range cases {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, key)
			}
		})
	})
}
