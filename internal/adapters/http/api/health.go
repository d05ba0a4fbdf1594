package api

import (
	"net/http"

	"github.com/okian/heartrisk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ModelKinder reports the loaded model kind.
type ModelKinder interface {
	ModelKind() string
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	model ModelKinder
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(model ModelKinder) *HealthHandler {
	return &HealthHandler{model: model}
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// HandleHealth handles GET /healthz. The service only starts once both
// artifacts are loaded, so reaching this handler means it is ready.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, nil)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Model: h.model.ModelKind()})
}

// NewMetricsHandler serves the custom Prometheus registry.
func NewMetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
