package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/adapters/http/api"
	"github.com/okian/heartrisk/internal/adapters/http/site"
	"github.com/okian/heartrisk/internal/adapters/http/swagger"
	app "github.com/okian/heartrisk/internal/app"
	"github.com/okian/heartrisk/internal/config"
	"github.com/okian/heartrisk/internal/domain/risk"
	"github.com/okian/heartrisk/pkg/logger"
	"github.com/okian/heartrisk/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Metrics live on a custom registry; drop the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := initLogger(cfg); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Fatal(ctx, "cannot start without model artifacts", logger.Error(err))
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("model", svc.ModelKind()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err := <-serveErr:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// initLogger configures the global logger from cfg, falling back to info
// on an invalid level.
func initLogger(cfg *config.Config) error {
	opts := []logger.Option{logger.WithJSON(cfg.LogJSON)}
	if cfg.LogFile != "" {
		opts = append(opts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(opts...); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// buildService loads both artifacts and wraps them in the prediction service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store := artifact.NewStore(
		artifact.WithModelPath(cfg.ModelPath),
		artifact.WithScalerPath(cfg.ScalerPath),
		artifact.WithLogger(log.Named("artifact")),
	)
	scaler, model, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	thresholds, err := risk.NewThresholds(cfg.HighThreshold, cfg.ModerateThreshold)
	if err != nil {
		return nil, err
	}

	return app.New(scaler, model,
		app.WithLogger(log.Named("predict")),
		app.WithThresholds(thresholds),
		app.WithFallbackProbabilities(cfg.FallbackPositive, cfg.FallbackNegative),
	)
}

// newMux registers every route: API, health, metrics, docs and the form page.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux, swagger.WithRedocScript(cfg.RedocScript))

	apiServer := api.NewServer(svc,
		api.WithLogger(log.Named("api")),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	apiServer.Register(ctx, mux)

	// Catch-all last in reading order; the mux picks the most specific pattern.
	site.Register(ctx, mux)

	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
