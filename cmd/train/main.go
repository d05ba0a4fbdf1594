// Command train fits the scaler and classifier from a labelled CSV and
// writes both artifacts where the server expects them.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/config"
	"github.com/okian/heartrisk/internal/training"
	"github.com/okian/heartrisk/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Flags default to the layered config so HEARTRISK_* env vars apply too.
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var (
		dataPath   = flag.String("data", cfg.DatasetPath, "Labelled CSV dataset")
		modelPath  = flag.String("model", cfg.ModelPath, "Model artifact output path")
		scalerPath = flag.String("scaler", cfg.ScalerPath, "Scaler artifact output path")
		modelType  = flag.String("type", cfg.ModelType, "Model type: random_forest or decision_tree")
		estimators = flag.Int("n_estimators", cfg.Estimators, "Number of trees in the forest")
		maxDepth   = flag.Int("max_depth", cfg.MaxDepth, "Maximum tree depth (0 = unlimited)")
		minLeaf    = flag.Int("min_samples_leaf", cfg.MinSamplesLeaf, "Minimum samples per leaf")
		testRatio  = flag.Float64("test_ratio", cfg.TestRatio, "Held-out fraction")
		seed       = flag.Int64("seed", cfg.Seed, "Random seed for split and trees")
		workers    = flag.Int("workers", cfg.TrainWorkers, "Concurrent tree fitters")
		logLevel   = flag.String("log_level", cfg.LogLevel, "Log level")
	)
	flag.Parse()

	cfg.DatasetPath, cfg.ModelPath, cfg.ScalerPath, cfg.ModelType = *dataPath, *modelPath, *scalerPath, *modelType
	cfg.TestRatio = *testRatio
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("invalid arguments: " + err.Error() + "\n")
		os.Exit(2)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(*logLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Named("train")

	store := artifact.NewStore(
		artifact.WithModelPath(cfg.ModelPath),
		artifact.WithScalerPath(cfg.ScalerPath),
		artifact.WithLogger(log),
	)
	trainer := training.New(store,
		training.WithLogger(log),
		training.WithParams(training.Params{
			DatasetPath:    cfg.DatasetPath,
			ModelType:      cfg.ModelType,
			Estimators:     *estimators,
			MaxDepth:       *maxDepth,
			MinSamplesLeaf: *minLeaf,
			TestRatio:      cfg.TestRatio,
			Seed:           *seed,
			Workers:        *workers,
		}),
	)

	if _, err := trainer.Run(ctx); err != nil {
		log.Fatal(ctx, "training failed", logger.Error(err))
	}
}
