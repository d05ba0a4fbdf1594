package artifact_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/domain/classifier"
	. "github.com/smartystreets/goconvey/convey"
)

func fixture(t *testing.T) (*classifier.StandardScaler, [][]float64, []int) {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	x := make([][]float64, 120)
	y := make([]int, len(x))
	for i := range x {
		row := make([]float64, 8)
		for j := range row {
			row[j] = rng.NormFloat64()*10 + float64(j)
		}
		x[i] = row
		if row[7] > 7 {
			y[i] = 1
		}
	}
	scaler, err := classifier.FitStandardScaler(x)
	if err != nil {
		t.Fatal(err)
	}
	scaled, err := scaler.TransformAll(x)
	if err != nil {
		t.Fatal(err)
	}
	return scaler, scaled, y
}

func newStore(dir string) *artifact.Store {
	return artifact.NewStore(
		artifact.WithModelPath(filepath.Join(dir, "model", "heart_disease_model.json")),
		artifact.WithScalerPath(filepath.Join(dir, "model", "scaler.json")),
	)
}

func TestStoreRoundTrip(t *testing.T) {
	Convey("Given a fitted scaler and forest", t, func() {
		ctx := context.Background()
		scaler, x, y := fixture(t)
		params := classifier.DefaultForestParams()
		params.Estimators = 10
		rf := classifier.NewRandomForest()
		So(rf.Fit(ctx, x, y, params), ShouldBeNil)

		store := newStore(t.TempDir())

		Convey("When saving and loading them", func() {
			So(store.Save(ctx, scaler, rf), ShouldBeNil)
			loadedScaler, loadedModel, err := store.Load(ctx)

			Convey("Then the loaded pair reproduces the original probabilities", func() {
				So(err, ShouldBeNil)
				So(loadedScaler, ShouldResemble, scaler)
				prob, ok := loadedModel.(classifier.ProbabilisticPredictor)
				So(ok, ShouldBeTrue)
				for _, row := range x[:10] {
					want, _ := rf.PredictProba(row)
					got, err := prob.PredictProba(row)
					So(err, ShouldBeNil)
					So(got, ShouldResemble, want)
				}
			})

			Convey("And no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(store.ModelPath()))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a fitted decision tree", t, func() {
		ctx := context.Background()
		scaler, x, y := fixture(t)
		dt := classifier.NewDecisionTree()
		So(dt.Fit(x, y, classifier.TreeParams{MaxDepth: 4}), ShouldBeNil)
		store := newStore(t.TempDir())
		So(store.Save(ctx, scaler, dt), ShouldBeNil)

		Convey("Then it loads as a discrete-only predictor", func() {
			_, model, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(classifier.KindOf(model), ShouldEqual, classifier.KindDecisionTree)
			_, ok := model.(classifier.ProbabilisticPredictor)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestStoreFailures(t *testing.T) {
	Convey("Given an empty directory", t, func() {
		ctx := context.Background()
		store := newStore(t.TempDir())

		Convey("When loading", func() {
			_, _, err := store.Load(ctx)

			Convey("Then a startup error reports the missing scaler", func() {
				var se *artifact.StartupError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Artifact, ShouldEqual, "scaler")
				So(errors.Is(err, artifact.ErrArtifactMissing), ShouldBeTrue)
			})
		})
	})

	Convey("Given a scaler but no model", t, func() {
		ctx := context.Background()
		scaler, _, _ := fixture(t)
		store := newStore(t.TempDir())
		So(store.SaveScaler(ctx, scaler), ShouldBeNil)

		_, _, err := store.Load(ctx)

		So(errors.Is(err, artifact.ErrArtifactMissing), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "model")
	})

	Convey("Given corrupt artifact files", t, func() {
		ctx := context.Background()
		scaler, _, _ := fixture(t)
		dir := t.TempDir()
		store := newStore(dir)
		So(store.SaveScaler(ctx, scaler), ShouldBeNil)

		cases := map[string]string{
			"garbage":       "not json at all",
			"unknown kind":  `{"kind":"svm","features":["age","gender","impluse","pressurehight","pressurelow","glucose","kcm","troponin"],"payload":{}}`,
			"wrong order":   `{"kind":"decision_tree","features":["gender","age","impluse","pressurehight","pressurelow","glucose","kcm","troponin"],"payload":{}}`,
			"empty payload": `{"kind":"decision_tree","features":["age","gender","impluse","pressurehight","pressurelow","glucose","kcm","troponin"]}`,
			"bad tree":      `{"kind":"decision_tree","features":["age","gender","impluse","pressurehight","pressurelow","glucose","kcm","troponin"],"payload":{"nodes":[{"feature_idx":0,"left_child":0,"right_child":0}],"features":8}}`,
			"empty forest":  `{"kind":"random_forest","features":["age","gender","impluse","pressurehight","pressurelow","glucose","kcm","troponin"],"payload":{"trees":[],"features":8}}`,
		}
		for name, body := range cases {
			So(os.WriteFile(store.ModelPath(), []byte(body), 0o600), ShouldBeNil)

			_, _, err := store.Load(ctx)

			var se *artifact.StartupError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Artifact, ShouldEqual, "model")
			if name == "unknown kind" {
				So(errors.Is(err, artifact.ErrUnsupportedKind), ShouldBeTrue)
			} else {
				So(errors.Is(err, artifact.ErrArtifactCorrupt), ShouldBeTrue)
			}
		}
	})

	Convey("Given a model type the store cannot persist", t, func() {
		store := newStore(t.TempDir())
		err := store.SaveModel(context.Background(), fakePredictor{})
		So(errors.Is(err, artifact.ErrUnsupportedKind), ShouldBeTrue)
	})
}

type fakePredictor struct{}

func (fakePredictor) Predict([]float64) (int, error) { return 0, nil }
