// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/heartrisk/internal/domain/patient"
	"github.com/okian/heartrisk/internal/domain/risk"
	"github.com/okian/heartrisk/pkg/logger"
)

// DefaultMaxBodyBytes caps predict request bodies.
const DefaultMaxBodyBytes = 1 << 16

// Dependencies required by HTTP handlers. Using an interface keeps the
// handler layer loosely coupled to the prediction service.
type Dependencies interface {
	// Predict scores one validated patient vector.
	Predict(ctx context.Context, v patient.Vector) (risk.Assessment, error)
	// ModelKind names the loaded model for health output.
	ModelKind() string
}

// Server wires HTTP routes for the business API.
type Server struct {
	predictHandler *PredictHandler
	healthHandler  *HealthHandler
	metricsHandler http.Handler
	logger         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger       logger.Logger
	maxBodyBytes int64
}

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxBodyBytes caps the predict request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{
		logger:       logger.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Server{
		predictHandler: NewPredictHandler(deps, o.logger, o.maxBodyBytes),
		healthHandler:  NewHealthHandler(deps),
		metricsHandler: NewMetricsHandler(),
		logger:         o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	chain := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestIDMiddleware(MetricsMiddleware(RecoverMiddleware(h, s.logger), endpoint))
	}

	mux.HandleFunc("/api/predict", chain(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.metricsHandler)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": msg}. Kind-wrapped errors report their cause.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
