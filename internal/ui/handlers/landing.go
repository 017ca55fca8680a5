// landing.go — корневой redirect и ролевые стартовые страницы.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/ui/pages"
)

// LandingHandler — обработчик стартовых страниц ролевых областей.
type LandingHandler struct {
	logger *slog.Logger
}

// NewLandingHandler создаёт LandingHandler.
func NewLandingHandler(logger *slog.Logger) *LandingHandler {
	return &LandingHandler{
		logger: logger.With(slog.String("component", "ui.landing")),
	}
}

// HandleRoot обрабатывает GET / — redirect в область текущей роли.
// Каждая роль уходит строго на свою страницу; нераспознанная роль
// не проваливается в чужую область, а возвращается на вход.
func (h *LandingHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	target := rbac.ResolveLandingRoute(rec.Role)
	if target == "" {
		h.logger.Warn("Сессия с нераспознанной ролью", slog.String("user_id", rec.UserID))
		http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLanding обрабатывает GET /{area} — стартовая страница области.
func (h *LandingHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	renderPage(w, r, h.logger, pages.Landing(pages.LandingData{
		UserName:           rec.Name,
		Role:               string(rec.Role),
		Links:              navLinksFor(rec.Role, rbac.ResolveLandingRoute(rec.Role)),
		ShowPasswordPrompt: rec.NeedsPasswordPrompt(),
	}))
}

// HandleNotFound обрабатывает неизвестные пути внутри областей.
func (h *LandingHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	w.WriteHeader(http.StatusNotFound)
	renderPage(w, r, h.logger, pages.Error(pages.ErrorData{
		Status:     http.StatusNotFound,
		MessageKey: "error.not_found",
		HomePath:   rbac.ResolveLandingRoute(rec.Role),
	}))
}
