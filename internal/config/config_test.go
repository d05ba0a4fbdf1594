package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/config"
	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/internal/domain/risk"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.ModelPath, convey.ShouldEqual, "model/heart_disease_model.json")
			convey.So(cfg.ScalerPath, convey.ShouldEqual, "model/scaler.json")
			convey.So(cfg.HighThreshold, convey.ShouldEqual, 0.66)
			convey.So(cfg.ModerateThreshold, convey.ShouldEqual, 0.33)
			convey.So(cfg.FallbackPositive, convey.ShouldEqual, 0.85)
			convey.So(cfg.FallbackNegative, convey.ShouldEqual, 0.15)
			convey.So(cfg.ModelType, convey.ShouldEqual, "random_forest")
			convey.So(cfg.Estimators, convey.ShouldEqual, 100)
			convey.So(cfg.TestRatio, convey.ShouldEqual, 0.2)
			convey.So(cfg.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.TrainWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the defaults agree with the packages that consume them", func() {
			th, err := risk.NewThresholds(cfg.HighThreshold, cfg.ModerateThreshold)
			convey.So(err, convey.ShouldBeNil)
			convey.So(th, convey.ShouldResemble, risk.DefaultThresholds())
			convey.So(cfg.FallbackPositive, convey.ShouldEqual, risk.DefaultFallbackPositive)
			convey.So(cfg.FallbackNegative, convey.ShouldEqual, risk.DefaultFallbackNegative)
			convey.So(cfg.ModelPath, convey.ShouldEqual, artifact.DefaultModelPath)
			convey.So(cfg.ScalerPath, convey.ShouldEqual, artifact.DefaultScalerPath)
			convey.So(cfg.ModelType, convey.ShouldEqual, classifier.KindRandomForest)
			convey.So(config.ModelTypeDecisionTree, convey.ShouldEqual, classifier.KindDecisionTree)
			convey.So(cfg.Estimators, convey.ShouldEqual, classifier.DefaultEstimators)
			convey.So(cfg.TestRatio, convey.ShouldEqual, classifier.DefaultTestRatio)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with bad values", t, func() {
		cases := map[string]func(*config.Config){
			"blank addr":          func(c *config.Config) { c.Addr = "  " },
			"empty model path":    func(c *config.Config) { c.ModelPath = "" },
			"fallback above one":  func(c *config.Config) { c.FallbackPositive = 1.2 },
			"negative fallback":   func(c *config.Config) { c.FallbackNegative = -0.1 },
			"test ratio of one":   func(c *config.Config) { c.TestRatio = 1 },
			"zero test ratio":     func(c *config.Config) { c.TestRatio = 0 },
			"unknown model":       func(c *config.Config) { c.ModelType = "svm" },
			"inverted thresholds": func(c *config.Config) { c.HighThreshold, c.ModerateThreshold = 0.3, 0.6 },
			"zero max body":       func(c *config.Config) { c.MaxBodyBytes = 0 },
			"threshold above one": func(c *config.Config) { c.HighThreshold = 1.5 },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.Printf("%s: %v\n", name, err)
		}
	})
}
