package training_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/internal/training"
	. "github.com/smartystreets/goconvey/convey"
)

// writeDataset writes n rows where troponin drives the label.
func writeDataset(t *testing.T, dir string, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	var b strings.Builder
	b.WriteString("age,gender,impluse,pressurehight,pressurelow,glucose,kcm,troponin,class\n")
	for i := 0; i < n; i++ {
		sick := i%2 == 0
		troponin := 0.005 + rng.Float64()*0.01
		label := "negative"
		if sick {
			troponin = 0.2 + rng.Float64()*0.5
			label = "positive"
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d,%.2f,%.4f,%s\n",
			40+rng.Intn(40), rng.Intn(2), 60+rng.Intn(40), 110+rng.Intn(60), 60+rng.Intn(30),
			90+rng.Intn(120), 1+rng.Float64()*5, troponin, label)
	}
	path := filepath.Join(dir, "heart.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newStore(dir string) *artifact.Store {
	return artifact.NewStore(
		artifact.WithModelPath(filepath.Join(dir, "model", "heart_disease_model.json")),
		artifact.WithScalerPath(filepath.Join(dir, "model", "scaler.json")),
	)
}

func TestTrainerRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a labelled dataset", t, func() {
		dir := t.TempDir()
		params := training.DefaultParams()
		params.DatasetPath = writeDataset(t, dir, 60)
		params.Estimators = 15
		params.Workers = 3

		Convey("When training a random forest", func() {
			store := newStore(dir)
			res, err := training.New(store, training.WithParams(params)).Run(ctx)

			Convey("Then both artifacts are written and reload", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, classifier.KindRandomForest)
				So(res.Rows, ShouldEqual, 60)
				So(res.Positives, ShouldEqual, 30)
				So(res.TestRows, ShouldEqual, 12)
				So(res.TrainRows, ShouldEqual, 48)

				scaler, model, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(scaler.Dim(), ShouldEqual, 8)
				forest, ok := model.(*classifier.RandomForest)
				So(ok, ShouldBeTrue)
				So(forest.Trees, ShouldHaveLength, 15)
			})

			Convey("Then a sick patient scores high", func() {
				scaler, model, err := store.Load(ctx)
				So(err, ShouldBeNil)
				x, err := scaler.Transform([]float64{63, 1, 66, 160, 83, 160, 1.8, 0.5})
				So(err, ShouldBeNil)
				proba, err := model.(classifier.ProbabilisticPredictor).PredictProba(x)
				So(err, ShouldBeNil)
				So(proba[classifier.Positive], ShouldBeGreaterThan, 0.5)
			})
		})

		Convey("When training with the same seed twice", func() {
			a, b := t.TempDir(), t.TempDir()
			_, err := training.New(newStore(a), training.WithParams(params)).Run(ctx)
			So(err, ShouldBeNil)
			_, err = training.New(newStore(b), training.WithParams(params)).Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then the models are identical", func() {
				_, ma, err := newStore(a).Load(ctx)
				So(err, ShouldBeNil)
				_, mb, err := newStore(b).Load(ctx)
				So(err, ShouldBeNil)
				So(ma, ShouldResemble, mb)
			})
		})

		Convey("When training a decision tree", func() {
			params.ModelType = classifier.KindDecisionTree
			store := newStore(dir)
			res, err := training.New(store, training.WithParams(params)).Run(ctx)

			So(err, ShouldBeNil)
			So(res.Kind, ShouldEqual, classifier.KindDecisionTree)
			_, model, err := store.Load(ctx)
			So(err, ShouldBeNil)
			_, probabilistic := model.(classifier.ProbabilisticPredictor)
			So(probabilistic, ShouldBeFalse)
		})

		Convey("When the model type is unknown", func() {
			params.ModelType = "svm"
			_, err := training.New(newStore(dir), training.WithParams(params)).Run(ctx)

			So(errors.Is(err, training.ErrUnknownModelType), ShouldBeTrue)
		})
	})

	Convey("Given a missing dataset", t, func() {
		dir := t.TempDir()
		params := training.DefaultParams()
		params.DatasetPath = filepath.Join(dir, "absent.csv")

		_, err := training.New(newStore(dir), training.WithParams(params)).Run(ctx)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a single-row dataset", t, func() {
		dir := t.TempDir()
		params := training.DefaultParams()
		params.DatasetPath = writeDataset(t, dir, 1)

		_, err := training.New(newStore(dir), training.WithParams(params)).Run(ctx)
		So(errors.Is(err, training.ErrTooFewRows), ShouldBeTrue)
	})
}
