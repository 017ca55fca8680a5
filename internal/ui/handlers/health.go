// health.go — liveness и readiness probes.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/golms/web-module/internal/lmsclient"
)

// HealthHandler — обработчики health-проб.
type HealthHandler struct {
	lms    *lmsclient.Client
	logger *slog.Logger
}

// NewHealthHandler создаёт HealthHandler.
func NewHealthHandler(lms *lmsclient.Client, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		lms:    lms,
		logger: logger.With(slog.String("component", "ui.health")),
	}
}

// HandleLive обрабатывает GET /health/live — процесс жив.
func (h *HealthHandler) HandleLive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HandleReady обрабатывает GET /health/ready — backend доступен.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.lms.Ping(r.Context()); err != nil {
		h.logger.Warn("Readiness: backend недоступен", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
