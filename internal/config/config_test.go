package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/okian/clanboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.AutoFreshHours, convey.ShouldEqual, 18)
			convey.So(cfg.TimelineDays, convey.ShouldEqual, 7)
			convey.So(cfg.SuccessorTenureDays, convey.ShouldEqual, 90)
			convey.So(cfg.LieutenantTenureDays, convey.ShouldEqual, 30)
			convey.So(cfg.WeightWar+cfg.WeightSocial+cfg.WeightReliability, convey.ShouldAlmostEqual, 1.0, 1e-9)
		})

		convey.Convey("Then derived durations follow the raw fields", func() {
			convey.So(cfg.AssessmentTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.AutoFreshWindow(), convey.ShouldEqual, 18*time.Hour)
			convey.So(cfg.AutoInterval(), convey.ShouldEqual, time.Hour)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
