// Пакет middleware — HTTP middleware Web Module.
// auth.go — ревалидация сессии на границе навигации и ролевой доступ.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/session"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// contextKeySession — запись сессии в контексте запроса.
	contextKeySession contextKey = "session_record"
)

// SessionAuth — middleware ревалидации сессии. Каждая навигация внутри
// защищённой области проходит через Manager.Refresh; handlers получают
// готовую запись из контекста и сами в backend за профилем не ходят.
type SessionAuth struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewSessionAuth создаёт middleware ревалидации.
func NewSessionAuth(sessions *session.Manager, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для защищённых маршрутов.
// Анонимный запрос перенаправляется на страницу входа с return_url,
// чтобы после входа вернуть пользователя на исходный адрес.
func (sa *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, state := sa.sessions.Refresh(r.Context(), w, r)
			if state != session.StateAuthenticated {
				sa.redirectToLogin(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeySession, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles возвращает middleware ролевого доступа поверх Middleware().
// Пользователь с чужой ролью перенаправляется на свою стартовую страницу.
func (sa *SessionAuth) RequireRoles(allowed ...rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := RecordFromContext(r.Context())
			if rec == nil {
				sa.redirectToLogin(w, r)
				return
			}

			decision := rbac.RequireRole(rec.Role, allowed...)
			if !decision.Authorized {
				sa.logger.Debug("Доступ запрещён, redirect в свою область",
					slog.String("role", string(rec.Role)),
					slog.String("path", r.URL.Path),
					slog.String("redirect", decision.Redirect),
				)
				http.Redirect(w, r, decision.Redirect, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// redirectToLogin отправляет на страницу входа, сохраняя исходный адрес.
func (sa *SessionAuth) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := rbac.LoginPath
	if r.Method == http.MethodGet && r.URL.Path != "/" {
		target += "?return_url=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// RecordFromContext извлекает запись сессии из контекста запроса.
// Возвращает nil если запрос не прошёл через SessionAuth.
func RecordFromContext(ctx context.Context) *session.Record {
	rec, ok := ctx.Value(contextKeySession).(*session.Record)
	if !ok {
		return nil
	}
	return rec
}

// WithRecord помещает запись сессии в контекст. Используется в тестах
// обработчиков.
func WithRecord(ctx context.Context, rec *session.Record) context.Context {
	return context.WithValue(ctx, contextKeySession, rec)
}
