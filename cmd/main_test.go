package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/config"
	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/internal/training"
	"github.com/okian/heartrisk/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// trainFixture writes a small dataset, trains modelType on it and returns
// a config pointing at the artifacts.
func trainFixture(t *testing.T, modelType string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("age,gender,impluse,pressurehight,pressurelow,glucose,kcm,troponin,class\n")
	for i := 0; i < 40; i++ {
		troponin, label := 0.008, "negative"
		if i%2 == 0 {
			troponin, label = 0.3+float64(i)/100, "positive"
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d,%.1f,%.3f,%s\n", 40+i, i%2, 60+i, 120+i, 70+i%20, 100+i, 1.5, troponin, label)
	}
	data := filepath.Join(dir, "heart.csv")
	if err := os.WriteFile(data, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.New()
	cfg.ModelPath = filepath.Join(dir, "model", "heart_disease_model.json")
	cfg.ScalerPath = filepath.Join(dir, "model", "scaler.json")

	params := training.DefaultParams()
	params.DatasetPath = data
	params.ModelType = modelType
	params.Estimators = 10
	store := artifact.NewStore(artifact.WithModelPath(cfg.ModelPath), artifact.WithScalerPath(cfg.ScalerPath))
	if _, err := training.New(store, training.WithParams(params)).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestServerWiring(t *testing.T) {
	convey.Convey("Given trained artifacts", t, func() {
		ctx := context.Background()
		cfg := trainFixture(t, classifier.KindRandomForest)

		svc, err := buildService(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		mux := newMux(ctx, svc, cfg, logger.Nop())

		convey.Convey("When posting the sample patient", func() {
			body := `{"age":63,"gender":1,"impulse":66,"highbp":160,"lowbp":83,"glucose":160,"kcm":1.8,"troponin":0.012}`
			req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then a full assessment comes back", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var out struct {
					Category    string   `json:"risk_category"`
					Probability float64  `json:"probability"`
					Tips        []string `json:"tips"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &out), convey.ShouldBeNil)
				convey.So(out.Category, convey.ShouldBeIn, []string{"Low", "Moderate", "High"})
				convey.So(out.Probability, convey.ShouldBeBetweenOrEqual, 0, 1)
				convey.So(out.Tips, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When requesting every registered route", func() {
			for path, want := range map[string]int{
				"/":             http.StatusOK,
				"/healthz":      http.StatusOK,
				"/metrics":      http.StatusOK,
				"/openapi.yaml": http.StatusOK,
				"/api-docs":     http.StatusOK,
				"/api/predict":  http.StatusMethodNotAllowed,
				"/nope":         http.StatusNotFound,
			} {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, want)
			}
		})
	})

	convey.Convey("Given a decision tree artifact", t, func() {
		ctx := context.Background()
		cfg := trainFixture(t, classifier.KindDecisionTree)

		svc, err := buildService(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.ModelKind(), convey.ShouldEqual, classifier.KindDecisionTree)
		convey.So(svc.Probabilistic(), convey.ShouldBeFalse)
	})

	convey.Convey("Given missing artifacts", t, func() {
		cfg := config.New()
		dir := t.TempDir()
		cfg.ModelPath = filepath.Join(dir, "absent.json")
		cfg.ScalerPath = filepath.Join(dir, "absent-scaler.json")

		_, err := buildService(context.Background(), cfg, logger.Nop())

		convey.Convey("Then a startup error is returned", func() {
			var se *artifact.StartupError
			convey.So(errors.As(err, &se), convey.ShouldBeTrue)
			convey.So(errors.Is(err, artifact.ErrArtifactMissing), convey.ShouldBeTrue)
		})
	})
}

func TestInitLogger(t *testing.T) {
	convey.Convey("Given a config with a bad log level", t, func() {
		cfg := config.New()
		cfg.LogLevel = "loud"

		convey.So(initLogger(cfg), convey.ShouldBeNil)
		convey.So(logger.Get(), convey.ShouldNotBeNil)
	})
}
