package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/session"
	uimiddleware "github.com/bigkaa/golms/web-module/internal/ui/middleware"
)

// setupBackend создаёт mock LMS backend и клиент к нему.
func setupBackend(t *testing.T, handler http.HandlerFunc) *lmsclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return lmsclient.New(server.URL, 5*time.Second, testLogger())
}

// newSessions — менеджер сессий для тестов экранов (backend не нужен).
func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	pc, err := session.NewProfileCodec("users-test-key", false, time.Hour)
	if err != nil {
		t.Fatalf("Ошибка создания ProfileCodec: %v", err)
	}
	return session.NewManager(session.Config{
		API:       &stubAPI{},
		Tokens:    session.NewTokenStore(false, time.Hour),
		Profiles:  pc,
		Logger:    testLogger(),
		CacheSize: 8,
		CacheTTL:  time.Minute,
	})
}

// adminRequest строит запрос с записью сессии администратора в контексте.
func adminRequest(method, path string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := &session.Record{
		UserID:       "admin-1",
		Name:         "Admin",
		Role:         rbac.RoleAdmin,
		BackendToken: "admin-token",
	}
	return req.WithContext(uimiddleware.WithRecord(req.Context(), rec))
}

// TestUsersHandleList — список пользователей рендерится с данными backend.
func TestUsersHandleList(t *testing.T) {
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("Authorization: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": "200",
			"data": map[string]any{
				"users": []map[string]any{
					{"id": "u-1", "name": "An", "email": "an@example.com", "role": "student"},
					{"id": "u-2", "name": "Binh", "email": "binh@example.com", "role": "teacher"},
				},
				"total": 2,
			},
		})
	})

	h := NewUsersHandler(lms, newSessions(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleList(rr, adminRequest(http.MethodGet, "/admin/users", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status: want %d, got %d", http.StatusOK, rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"an@example.com", "binh@example.com"} {
		if !strings.Contains(body, want) {
			t.Errorf("Страница не содержит %q", want)
		}
	}
}

// TestUsersHandleChangeRole — смена роли уходит в backend и
// возвращает на список с flash-сообщением.
func TestUsersHandleChangeRole(t *testing.T) {
	var gotPath, gotRole string
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotRole = body["new_role"]
		w.WriteHeader(http.StatusOK)
	})

	h := NewUsersHandler(lms, newSessions(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleChangeRole(rr, adminRequest(http.MethodPost, "/admin/users/role", url.Values{
		"user_id":  {"u-2"},
		"new_role": {"manager"},
	}))

	if gotPath != "PATCH /users/update-role/u-2" {
		t.Errorf("Backend вызван как %q", gotPath)
	}
	if gotRole != "manager" {
		t.Errorf("new_role: want manager, got %q", gotRole)
	}
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("Status: want %d, got %d", http.StatusSeeOther, rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/admin/users?flash=updated" {
		t.Errorf("Location: want %q, got %q", "/admin/users?flash=updated", got)
	}
}

// TestUsersHandleChangeRoleInvalidRole — нераспознанная роль не
// отправляется в backend.
func TestUsersHandleChangeRoleInvalidRole(t *testing.T) {
	backendCalled := false
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		backendCalled = true
	})

	h := NewUsersHandler(lms, newSessions(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleChangeRole(rr, adminRequest(http.MethodPost, "/admin/users/role", url.Values{
		"user_id":  {"u-2"},
		"new_role": {"superuser"},
	}))

	if backendCalled {
		t.Error("Backend не должен вызываться для невалидной роли")
	}
	if got := rr.Header().Get("Location"); got != "/admin/users" {
		t.Errorf("Location: want %q, got %q", "/admin/users", got)
	}
}

// TestUsersHandleListDeadToken — 401 от backend сносит сессию
// и ведёт на вход.
func TestUsersHandleListDeadToken(t *testing.T) {
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	h := NewUsersHandler(lms, newSessions(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleList(rr, adminRequest(http.MethodGet, "/admin/users", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("Status: want %d, got %d", http.StatusFound, rr.Code)
	}
	if got := rr.Header().Get("Location"); got != rbac.LoginPath {
		t.Errorf("Location: want %q, got %q", rbac.LoginPath, got)
	}
	cleared := 0
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge == -1 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Errorf("Ожидали стирание 2 cookies, стёрто %d", cleared)
	}
}

// TestAnalyticsIframeCache — второй запрос экрана аналитики
// не ходит в backend за iframe-URL.
func TestAnalyticsIframeCache(t *testing.T) {
	calls := 0
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/iframe/generate_iframe_url" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": "200",
			"data": "https://analytics.lms.local/embed?sig=abc",
		})
	})

	h := NewAnalyticsHandler(lms, newSessions(t), time.Minute, testLogger())

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.HandleAnalytics(rr, adminRequest(http.MethodGet, "/admin/analytics", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("Итерация %d: status %d", i, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "analytics.lms.local") {
			t.Errorf("Итерация %d: iframe-URL отсутствует на странице", i)
		}
	}

	if calls != 1 {
		t.Errorf("Backend должен вызываться 1 раз, вызовов: %d", calls)
	}
}

// TestAnalyticsBackendDownDegrades — сбой backend не роняет экран:
// показывается заглушка.
func TestAnalyticsBackendDownDegrades(t *testing.T) {
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	h := NewAnalyticsHandler(lms, newSessions(t), time.Minute, testLogger())

	rr := httptest.NewRecorder()
	h.HandleAnalytics(rr, adminRequest(http.MethodGet, "/admin/analytics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status: want %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "analytics.unavailable") {
		t.Error("Ожидали заглушку о недоступности аналитики")
	}
}

// TestAssistantsHandleList — список моделей с раскрытой формой создания.
func TestAssistantsHandleList(t *testing.T) {
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/models":
			json.NewEncoder(w).Encode(map[string]any{
				"code": "200",
				"data": []map[string]any{
					{"id": "m-1", "name": "Tutor", "base_model": "gpt-4o", "is_active": true},
				},
			})
		case "/models/base":
			json.NewEncoder(w).Encode(map[string]any{
				"code": "200",
				"data": []string{"gpt-4o", "gemini-pro"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	h := NewAssistantsHandler(lms, newSessions(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleList(rr, adminRequest(http.MethodGet, "/admin/assistants?modal=create", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status: want %d, got %d", http.StatusOK, rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Tutor", "gemini-pro"} {
		if !strings.Contains(body, want) {
			t.Errorf("Страница не содержит %q", want)
		}
	}
}

// TestAssistantsToggle — переключение активности уходит в backend.
func TestAssistantsToggle(t *testing.T) {
	var gotPath string
	lms := setupBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	h := NewAssistantsHandler(lms, newSessions(t), testLogger())

	rr := httptest.NewRecorder()
	h.HandleToggle(rr, adminRequest(http.MethodPost, "/admin/assistants/toggle", url.Values{
		"id": {"m-1"},
	}))

	if gotPath != "PUT /models/toggle/is-active/m-1" {
		t.Errorf("Backend вызван как %q", gotPath)
	}
	if got := rr.Header().Get("Location"); got != "/admin/assistants" {
		t.Errorf("Location: want %q, got %q", "/admin/assistants", got)
	}
}

// TestNavLinksForRoles — навигация соответствует роли.
func TestNavLinksForRoles(t *testing.T) {
	admin := navLinksFor(rbac.RoleAdmin, "/admin")
	if len(admin) != 4 {
		t.Errorf("admin: want 4 пункта, got %d", len(admin))
	}
	student := navLinksFor(rbac.RoleStudent, "/student")
	if len(student) != 1 {
		t.Errorf("student: want 1 пункт, got %d", len(student))
	}
	if unknown := navLinksFor(rbac.RoleUnknown, "/"); unknown != nil {
		t.Errorf("unknown: want nil, got %v", unknown)
	}
}
