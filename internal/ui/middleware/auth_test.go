package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/session"
)

// stubAPI — минимальный backend для тестов middleware.
type stubAPI struct {
	profile model.Profile
	token   string
}

func (s *stubAPI) Login(_ context.Context, _, _ string) (string, error) {
	return s.token, nil
}

func (s *stubAPI) VerifyGoogleIDToken(_ context.Context, _ string) (string, error) {
	return "", errors.New("не используется в тестах middleware")
}

func (s *stubAPI) Me(_ context.Context, token string) (model.Profile, error) {
	if token != s.token {
		return model.Profile{}, errors.New("неизвестный токен")
	}
	return s.profile, nil
}

func (s *stubAPI) Logout(_ context.Context, _ string) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestSessions создаёт менеджер сессий поверх stub backend.
func newTestSessions(t *testing.T, profile model.Profile) *session.Manager {
	t.Helper()
	pc, err := session.NewProfileCodec("middleware-test-key", false, time.Hour)
	if err != nil {
		t.Fatalf("Ошибка создания ProfileCodec: %v", err)
	}
	return session.NewManager(session.Config{
		API:       &stubAPI{profile: profile, token: "test-token"},
		Tokens:    session.NewTokenStore(false, time.Hour),
		Profiles:  pc,
		Logger:    testLogger(),
		CacheSize: 8,
		CacheTTL:  time.Minute,
	})
}

// loginRequest выполняет вход и возвращает запрос с сессионными cookies.
func loginRequest(t *testing.T, m *session.Manager, path string) *http.Request {
	t.Helper()
	rr := httptest.NewRecorder()
	if _, err := m.SubmitCredentials(context.Background(), rr, "t@example.com", "pw"); err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}

// TestMiddlewareRedirectsAnonymous — анонимный запрос перенаправляется
// на вход с сохранением исходного адреса.
func TestMiddlewareRedirectsAnonymous(t *testing.T) {
	sa := NewSessionAuth(newTestSessions(t, model.Profile{Role: rbac.RoleTeacher}), testLogger())

	handler := sa.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Защищённый handler не должен вызываться для анонима")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teacher/courses", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("Status: want %d, got %d", http.StatusFound, rr.Code)
	}
	want := "/auth/login?return_url=%2Fteacher%2Fcourses"
	if got := rr.Header().Get("Location"); got != want {
		t.Errorf("Location: want %q, got %q", want, got)
	}
}

// TestMiddlewarePassesAuthenticated — аутентифицированный запрос
// проходит, запись сессии доступна в контексте.
func TestMiddlewarePassesAuthenticated(t *testing.T) {
	profile := model.Profile{ID: "u-1", Name: "T", Email: "t@example.com", Role: rbac.RoleTeacher}
	m := newTestSessions(t, profile)
	sa := NewSessionAuth(m, testLogger())

	called := false
	handler := sa.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		rec := RecordFromContext(r.Context())
		if rec == nil {
			t.Fatal("Запись сессии отсутствует в контексте")
		}
		if rec.Role != rbac.RoleTeacher {
			t.Errorf("Role: want %q, got %q", rbac.RoleTeacher, rec.Role)
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, loginRequest(t, m, "/teacher"))

	if !called {
		t.Error("Защищённый handler не был вызван")
	}
}

// TestRequireRolesForeignRole — чужая роль перенаправляется на свою
// стартовую страницу, а не на /auth/login.
func TestRequireRolesForeignRole(t *testing.T) {
	sa := NewSessionAuth(newTestSessions(t, model.Profile{}), testLogger())

	handler := sa.RequireRoles(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler не должен вызываться для чужой роли")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req = req.WithContext(WithRecord(req.Context(), &session.Record{
		UserID: "u-2", Role: rbac.RoleStudent, BackendToken: "tok",
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("Status: want %d, got %d", http.StatusFound, rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/student" {
		t.Errorf("Location: want %q, got %q", "/student", got)
	}
}

// TestRequireRolesAllowed — разрешённая роль проходит.
func TestRequireRolesAllowed(t *testing.T) {
	sa := NewSessionAuth(newTestSessions(t, model.Profile{}), testLogger())

	called := false
	handler := sa.RequireRoles(rbac.RoleAdmin, rbac.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/manager", nil)
	req = req.WithContext(WithRecord(req.Context(), &session.Record{
		UserID: "u-3", Role: rbac.RoleManager, BackendToken: "tok",
	}))

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("Handler не был вызван для разрешённой роли")
	}
}
