package api

import (
	"errors"
	"io"
	"net/http"

	service "github.com/okian/heartrisk/internal/app"
	"github.com/okian/heartrisk/internal/domain/patient"
	"github.com/okian/heartrisk/pkg/logger"
	"github.com/okian/heartrisk/pkg/metrics"
)

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps         Dependencies
	logger       logger.Logger
	maxBodyBytes int64
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies, l logger.Logger, maxBodyBytes int64) *PredictHandler {
	if l == nil {
		l = logger.Nop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &PredictHandler{deps: deps, logger: l, maxBodyBytes: maxBodyBytes}
}

// HandlePredict handles POST /api/predict requests. Every failure is
// reported as 400 with {"error": msg}.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, NewKind(op, ErrMethodNotAllowed))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.reject(w, r, "validation", WrapKind(op, ErrBadRequest, err))
		return
	}

	v, err := patient.ParseRequest(body)
	if err != nil {
		h.reject(w, r, "validation", WrapKind(op, ErrBadRequest, err))
		return
	}

	assessment, err := h.deps.Predict(ctx, v)
	if err != nil {
		kind := "compute"
		if errors.Is(err, service.ErrCompute) {
			// already counted by the service
			kind = ""
		}
		h.reject(w, r, kind, WrapKind(op, ErrBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

func (h *PredictHandler) reject(w http.ResponseWriter, r *http.Request, kind string, err error) {
	if kind != "" {
		metrics.RecordPredictionError(kind)
	}
	h.logger.Warn(r.Context(), "prediction rejected",
		logger.String("request_id", RequestID(r.Context())),
		logger.String("reason", describe(err)),
	)
	writeError(w, http.StatusBadRequest, err)
}
