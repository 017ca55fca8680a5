// auth.go — обработчики входа и выхода: форма email/пароль и
// redirect-callback Google Identity Services.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/session"
	uimiddleware "github.com/bigkaa/golms/web-module/internal/ui/middleware"
	"github.com/bigkaa/golms/web-module/internal/ui/pages"
)

// googleCallbackPath — куда Google Identity Services отправляет credential.
const googleCallbackPath = "/auth/google/callback"

// AuthHandler — обработчики аутентификации.
type AuthHandler struct {
	sessions       *session.Manager
	googleClientID string
	publicBaseURL  string
	logger         *slog.Logger
}

// NewAuthHandler создаёт AuthHandler.
func NewAuthHandler(sessions *session.Manager, googleClientID, publicBaseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:       sessions,
		googleClientID: googleClientID,
		publicBaseURL:  publicBaseURL,
		logger:         logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage обрабатывает GET /auth/login — страница входа.
// Уже вошедший пользователь перенаправляется в свою область.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if rec, state := h.sessions.Current(r); state == session.StateAuthenticated {
		http.Redirect(w, r, rbac.ResolveLandingRoute(rec.Role), http.StatusFound)
		return
	}

	h.renderLogin(w, r, pages.LoginData{
		ReturnURL: sanitizeReturnURL(r.URL.Query().Get("return_url")),
		ErrorKey:  loginErrorKey(r.URL.Query().Get("error")),
	})
}

// HandleLogin обрабатывает POST /auth/login — вход по email/паролю.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	returnURL := sanitizeReturnURL(r.FormValue("return_url"))

	rec, err := h.sessions.SubmitCredentials(r.Context(), w, email, password)
	if err != nil {
		uimiddleware.ObserveLogin("local", loginOutcome(err))
		h.renderLogin(w, r, pages.LoginData{
			ReturnURL: returnURL,
			ErrorKey:  loginErrorKeyFor(err),
			Email:     email,
		})
		return
	}

	uimiddleware.ObserveLogin("local", "success")
	h.redirectAfterLogin(w, r, rec, returnURL)
}

// HandleGoogleCallback обрабатывает POST /auth/google/callback —
// credential от Google Identity Services (ux_mode=redirect).
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	// Double-submit защита GIS: cookie и поле формы должны совпадать.
	csrfCookie, err := r.Cookie("g_csrf_token")
	if err != nil || csrfCookie.Value == "" || csrfCookie.Value != r.FormValue("g_csrf_token") {
		h.logger.Warn("Google callback без валидного g_csrf_token")
		http.Redirect(w, r, rbac.LoginPath+"?error=identity", http.StatusFound)
		return
	}

	credential := r.FormValue("credential")
	rec, err := h.sessions.SubmitGoogleAssertion(r.Context(), w, credential)
	if err != nil {
		uimiddleware.ObserveLogin("google", loginOutcome(err))
		h.logger.Info("Вход через Google отклонён", slog.String("error", err.Error()))
		http.Redirect(w, r, rbac.LoginPath+"?error="+loginErrorParam(err), http.StatusFound)
		return
	}

	uimiddleware.ObserveLogin("google", "success")
	h.redirectAfterLogin(w, r, rec, "")
}

// HandleLogout обрабатывает POST /auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), w, r)
	http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
}

// redirectAfterLogin отправляет на return_url или стартовую страницу роли.
func (h *AuthHandler) redirectAfterLogin(w http.ResponseWriter, r *http.Request, rec *session.Record, returnURL string) {
	target := returnURL
	if target == "" {
		target = rbac.ResolveLandingRoute(rec.Role)
	}
	if target == "" {
		// Роль не распознана: сессию не оставляем.
		h.logger.Warn("Вход с нераспознанной ролью", slog.String("email", rec.Email))
		h.sessions.Teardown(w)
		target = rbac.LoginPath + "?error=server"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// renderLogin рендерит страницу входа с настройками GIS.
func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, data pages.LoginData) {
	data.GoogleClientID = h.googleClientID
	data.GoogleLoginURI = h.publicBaseURL + googleCallbackPath
	renderPage(w, r, h.logger, pages.Login(data))
}

// loginErrorKeyFor переводит ошибку входа в i18n-ключ сообщения.
func loginErrorKeyFor(err error) string {
	switch {
	case errors.Is(err, lmsclient.ErrInvalidCredentials):
		return "login.error.invalid"
	case errors.Is(err, lmsclient.ErrIdentityRejected):
		return "login.error.identity"
	case errors.Is(err, session.ErrProfileFetchFailed):
		return "login.error.profile"
	case errors.Is(err, session.ErrLoginSuperseded):
		// Вытесненный вход молча возвращает на форму.
		return ""
	default:
		return "login.error.server"
	}
}

// loginErrorParam — короткий код ошибки для redirect-based потока Google.
func loginErrorParam(err error) string {
	switch {
	case errors.Is(err, lmsclient.ErrIdentityRejected):
		return "identity"
	case errors.Is(err, session.ErrProfileFetchFailed):
		return "profile"
	default:
		return "server"
	}
}

// loginErrorKey переводит query-код ошибки обратно в i18n-ключ.
func loginErrorKey(param string) string {
	switch param {
	case "invalid":
		return "login.error.invalid"
	case "identity":
		return "login.error.identity"
	case "profile":
		return "login.error.profile"
	case "server":
		return "login.error.server"
	default:
		return ""
	}
}

// loginOutcome — лейбл исхода попытки входа для метрик.
func loginOutcome(err error) string {
	switch {
	case errors.Is(err, lmsclient.ErrInvalidCredentials),
		errors.Is(err, lmsclient.ErrIdentityRejected):
		return "rejected"
	default:
		return "error"
	}
}
