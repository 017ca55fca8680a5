// users.go — административный экран управления пользователями.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/session"
	"github.com/bigkaa/golms/web-module/internal/ui/pages"
)

// defaultUsersLimit — размер страницы списка пользователей.
const defaultUsersLimit = 20

// UsersHandler — обработчики экрана пользователей.
type UsersHandler struct {
	lms      *lmsclient.Client
	sessions *session.Manager
	logger   *slog.Logger
}

// NewUsersHandler создаёт UsersHandler.
func NewUsersHandler(lms *lmsclient.Client, sessions *session.Manager, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		lms:      lms,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui.users")),
	}
}

// HandleList обрабатывает GET /{area}/users — список с поиском и пагинацией.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	searchBy := query.Get("search_by")
	if searchBy != "email" {
		searchBy = "name"
	}

	userPage, err := h.lms.ListUsers(r.Context(), rec.BackendToken, lmsclient.UserQuery{
		Page:     page,
		Limit:    defaultUsersLimit,
		Query:    query.Get("query"),
		SearchBy: searchBy,
	})
	if err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	basePath := rbac.ResolveLandingRoute(rec.Role) + "/users"
	renderPage(w, r, h.logger, pages.Users(pages.UsersData{
		UserName: rec.Name,
		Links:    navLinksFor(rec.Role, basePath),
		Page:     userPage,
		Query:    query.Get("query"),
		SearchBy: searchBy,
		Roles:    assignableRoles(rec.Role),
		FlashKey: flashKey(query.Get("flash")),
		BasePath: basePath,
	}))
}

// HandleChangeRole обрабатывает POST /{area}/users/role — смена роли.
func (h *UsersHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	userID := r.FormValue("user_id")
	newRole := rbac.ParseRole(r.FormValue("new_role"))
	basePath := rbac.ResolveLandingRoute(rec.Role) + "/users"

	if userID == "" || !newRole.IsValid() {
		http.Redirect(w, r, basePath, http.StatusSeeOther)
		return
	}

	if err := h.lms.UpdateUserRole(r.Context(), rec.BackendToken, userID, newRole); err != nil {
		handleBackendError(w, r, h.sessions, h.logger, rec, err)
		return
	}

	h.logger.Info("Роль пользователя изменена",
		slog.String("user_id", userID),
		slog.String("new_role", string(newRole)),
		slog.String("changed_by", rec.UserID),
	)
	http.Redirect(w, r, basePath+"?flash=updated", http.StatusSeeOther)
}

// assignableRoles — роли, которые может назначать текущий пользователь.
// Менеджер не может назначать администраторов.
func assignableRoles(actor rbac.Role) []rbac.Role {
	roles := []rbac.Role{rbac.RoleManager, rbac.RoleDirector, rbac.RoleTeacher, rbac.RoleStudent}
	if actor == rbac.RoleAdmin {
		return append([]rbac.Role{rbac.RoleAdmin}, roles...)
	}
	return roles
}

// flashKey переводит flash-код из query в i18n-ключ.
func flashKey(param string) string {
	if param == "updated" {
		return "users.updated"
	}
	return ""
}
