// Пакет handlers — HTTP-обработчики Web Module.
// common.go — общие хелперы: навигация по ролям, рендеринг, обработка
// ошибок backend.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/session"
	uimiddleware "github.com/bigkaa/golms/web-module/internal/ui/middleware"
	"github.com/bigkaa/golms/web-module/internal/ui/pages"
)

// navLinksFor возвращает пункты навигации, доступные роли.
// active — путь текущего экрана.
func navLinksFor(role rbac.Role, active string) []pages.NavLink {
	home := rbac.ResolveLandingRoute(role)
	if home == "" {
		return nil
	}

	links := []pages.NavLink{{Href: home, LabelKey: "nav.home"}}

	switch role {
	case rbac.RoleAdmin:
		links = append(links,
			pages.NavLink{Href: home + "/users", LabelKey: "nav.users"},
			pages.NavLink{Href: home + "/assistants", LabelKey: "nav.assistants"},
			pages.NavLink{Href: home + "/analytics", LabelKey: "nav.analytics"},
		)
	case rbac.RoleManager:
		links = append(links,
			pages.NavLink{Href: home + "/users", LabelKey: "nav.users"},
			pages.NavLink{Href: home + "/analytics", LabelKey: "nav.analytics"},
		)
	case rbac.RoleDirector:
		links = append(links,
			pages.NavLink{Href: home + "/analytics", LabelKey: "nav.analytics"},
		)
	}

	for i := range links {
		if links[i].Href == active {
			links[i].Active = true
		}
	}
	return links
}

// renderPage рендерит компонент страницы с логированием ошибки.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// handleBackendError переводит ошибку backend в HTTP-ответ.
// ErrUnauthorized — мёртвый токен: teardown и redirect на вход.
// ErrForbidden не показывается как ошибка: молчаливый redirect на
// стартовую страницу роли, сессия сохраняется.
func handleBackendError(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *slog.Logger, rec *session.Record, err error) {
	switch {
	case errors.Is(err, lmsclient.ErrUnauthorized):
		sessions.Teardown(w)
		http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
	case errors.Is(err, lmsclient.ErrForbidden):
		logger.Warn("Backend отказал в доступе",
			slog.String("path", r.URL.Path),
			slog.String("user_id", rec.UserID),
		)
		home := rbac.ResolveLandingRoute(rec.Role)
		if home == "" {
			home = rbac.LoginPath
		}
		http.Redirect(w, r, home, http.StatusFound)
	default:
		logger.Error("Ошибка backend", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		w.WriteHeader(http.StatusBadGateway)
		renderPage(w, r, logger, pages.Error(pages.ErrorData{
			Status:     http.StatusBadGateway,
			MessageKey: "error.server",
			HomePath:   rbac.ResolveLandingRoute(rec.Role),
		}))
	}
}

// isUnauthorized сообщает, означает ли ошибка мёртвый токен.
func isUnauthorized(err error) bool {
	return errors.Is(err, lmsclient.ErrUnauthorized)
}

// requireRecord извлекает запись сессии; без неё — redirect на вход.
func requireRecord(w http.ResponseWriter, r *http.Request) *session.Record {
	rec := uimiddleware.RecordFromContext(r.Context())
	if rec == nil {
		http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
		return nil
	}
	return rec
}

// sanitizeReturnURL допускает только относительные пути внутри сайта.
func sanitizeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	if strings.ContainsAny(raw, "\r\n") {
		return ""
	}
	return raw
}
