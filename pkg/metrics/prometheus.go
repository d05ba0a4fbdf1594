// Package metrics provides Prometheus metrics for the heartrisk service and trainer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probability histogram buckets line up with the risk thresholds.
var probabilityBuckets = []float64{0.1, 0.2, 0.33, 0.5, 0.66, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // constant bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction metrics
	predictions         *prometheus.CounterVec
	predictionsDegraded prometheus.Counter
	predictionErrors    *prometheus.CounterVec
	predictionLatency   prometheus.Histogram
	probability         prometheus.Histogram

	// Artifact metrics
	artifactLoadDuration *prometheus.HistogramVec
	artifactLoadErrors   *prometheus.CounterVec
	modelInfo            *prometheus.GaugeVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanics          prometheus.Counter

	// System metrics
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge

	// Training metrics
	trainingRows     prometheus.Gauge
	trainingDuration prometheus.Gauge
	treesFitted      prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "heartrisk",
		subsystem:        "inference",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Total number of successful predictions by risk bucket",
		ConstLabels: m.constLabels,
	}, []string{"bucket"})

	m.predictionsDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_degraded_total",
		Help:        "Predictions served with a proxy probability because the model has no probability output",
		ConstLabels: m.constLabels,
	})

	m.predictionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_errors_total",
		Help:        "Rejected prediction requests by error kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_latency_seconds",
		Help:        "Time spent scaling and scoring one feature vector",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.probability = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "probability",
		Help:        "Distribution of returned class-1 probabilities",
		Buckets:     probabilityBuckets,
		ConstLabels: m.constLabels,
	})

	m.artifactLoadDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "artifact",
		Name:        "load_duration_seconds",
		Help:        "Time spent reading and decoding an artifact",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"artifact"})

	m.artifactLoadErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "artifact",
		Name:        "load_errors_total",
		Help:        "Artifact load failures by artifact and reason",
		ConstLabels: m.constLabels,
	}, []string{"artifact", "reason"})

	m.modelInfo = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "artifact",
		Name:        "model_info",
		Help:        "Set to 1 for the loaded model kind",
		ConstLabels: m.constLabels,
	}, []string{"kind", "probabilistic"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "panics_recovered_total",
		Help:        "Handler panics converted into error responses",
		ConstLabels: m.constLabels,
	})

	m.systemMemory = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.trainingRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "training",
		Name:        "rows",
		Help:        "Rows used to fit the last model",
		ConstLabels: m.constLabels,
	})

	m.trainingDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "training",
		Name:        "last_duration_seconds",
		Help:        "Wall time of the last training run",
		ConstLabels: m.constLabels,
	})

	m.treesFitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "training",
		Name:        "trees_fitted_total",
		Help:        "Decision trees fitted",
		ConstLabels: m.constLabels,
	})
}

// Prediction metrics.

// RecordPrediction counts a successful prediction and observes its probability.
func RecordPrediction(bucket string, probability, seconds float64) {
	globalManager.predictions.WithLabelValues(bucket).Inc()
	globalManager.probability.Observe(probability)
	globalManager.predictionLatency.Observe(seconds)
}

// RecordDegradedPrediction counts a prediction served from the discrete fallback.
func RecordDegradedPrediction() {
	globalManager.predictionsDegraded.Inc()
}

// RecordPredictionError counts a rejected prediction by kind
// ("validation", "compute", "panic").
func RecordPredictionError(kind string) {
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// Artifact metrics.

// RecordArtifactLoad observes how long loading an artifact took.
func RecordArtifactLoad(artifact string, seconds float64) {
	globalManager.artifactLoadDuration.WithLabelValues(artifact).Observe(seconds)
}

// RecordArtifactLoadError counts a failed artifact load.
func RecordArtifactLoadError(artifact, reason string) {
	globalManager.artifactLoadErrors.WithLabelValues(artifact, reason).Inc()
}

// SetModelInfo publishes the loaded model kind.
func SetModelInfo(kind string, probabilistic bool) {
	p := "false"
	if probabilistic {
		p = "true"
	}
	globalManager.modelInfo.Reset()
	globalManager.modelInfo.WithLabelValues(kind, p).Set(1)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request with endpoint, method, and status code labels.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordHTTPPanic counts a recovered handler panic.
func RecordHTTPPanic() {
	globalManager.httpPanics.Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemory.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutines.Set(float64(n))
}

// Training metrics.

// RecordTraining publishes the size and duration of a finished training run.
func RecordTraining(rows int, seconds float64) {
	globalManager.trainingRows.Set(float64(rows))
	globalManager.trainingDuration.Set(seconds)
}

// RecordTreeFitted counts one fitted tree.
func RecordTreeFitted() {
	globalManager.treesFitted.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
