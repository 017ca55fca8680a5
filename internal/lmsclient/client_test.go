package lmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockBackend создаёт mock HTTP-сервер LMS backend.
func setupMockBackend(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(server.URL, 5*time.Second, testLogger())
}

// TestClient_LoginSuccess проверяет Login (POST /auth/login).
func TestClient_LoginSuccess(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		// Маркерный заголовок обязателен (CSRF-проверка backend)
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Error("Запрос без маркерного заголовка X-Requested-With")
		}
		// Login — неавторизованный endpoint
		if r.Header.Get("Authorization") != "" {
			t.Error("Login не должен передавать Authorization header")
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Ошибка декодирования тела запроса: %v", err)
		}
		if body["email"] != "a@example.com" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "success",
			"token":  "backend-token-123",
		})
	})

	token, err := client.Login(context.Background(), "a@example.com", "secret")
	if err != nil {
		t.Fatalf("Login вернул ошибку: %v", err)
	}
	if token != "backend-token-123" {
		t.Errorf("Token: want %q, got %q", "backend-token-123", token)
	}
}

// TestClient_LoginInvalidCredentials — 401 на login это восстановимая
// ошибка формы, hook не вызывается.
func TestClient_LoginInvalidCredentials(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	hookCalled := false
	client.SetUnauthorizedHook(func() { hookCalled = true })

	_, err := client.Login(context.Background(), "a@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Ожидали ErrInvalidCredentials, получили: %v", err)
	}
	if hookCalled {
		t.Error("Hook не должен вызываться на 401 от login")
	}
}

// TestClient_LoginFailStatus — status != "success" в 200-ответе
// тоже означает неверные учётные данные.
func TestClient_LoginFailStatus(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "fail", "message": "bad"})
	})

	_, err := client.Login(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Ожидали ErrInvalidCredentials, получили: %v", err)
	}
}

// TestClient_VerifyGoogleIDTokenRejected — 401 на обмене Google-токена.
func TestClient_VerifyGoogleIDTokenRejected(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/google/verify-id-token" {
			t.Errorf("Неожиданный путь: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.VerifyGoogleIDToken(context.Background(), "some-id-token")
	if !errors.Is(err, ErrIdentityRejected) {
		t.Fatalf("Ожидали ErrIdentityRejected, получили: %v", err)
	}
}

// TestClient_Me проверяет GET /users/me и нормализацию профиля.
func TestClient_Me(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization: want %q, got %q", "Bearer tok-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":               "u-1",
			"name":             "A",
			"email":            "a@example.com",
			"role":             "TEACHER",
			"login_type":       "google",
			"password_changed": true,
		})
	})

	profile, err := client.Me(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Me вернул ошибку: %v", err)
	}
	if profile.Role != rbac.RoleTeacher {
		t.Errorf("Role: want %q, got %q", rbac.RoleTeacher, profile.Role)
	}
	if string(profile.LoginType) != "google" {
		t.Errorf("LoginType: want google, got %q", profile.LoginType)
	}
}

// TestClient_UnauthorizedHook — 401 на авторизованном endpoint
// возвращает ErrUnauthorized и дёргает hook ровно один раз.
func TestClient_UnauthorizedHook(t *testing.T) {
	calls := 0
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	hookCalls := 0
	client.SetUnauthorizedHook(func() { hookCalls++ })

	_, err := client.Me(context.Background(), "dead-token")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Ожидали ErrUnauthorized, получили: %v", err)
	}
	if calls != 1 {
		t.Errorf("Запрос не должен повторяться: %d вызовов backend", calls)
	}
	if hookCalls != 1 {
		t.Errorf("Hook должен вызваться ровно 1 раз, вызовов: %d", hookCalls)
	}
}

// TestClient_ListUsersEnvelope проверяет распаковку конверта {code, message, data}.
func TestClient_ListUsersEnvelope(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "20" {
			t.Errorf("Пагинация: page=%s limit=%s", q.Get("page"), q.Get("limit"))
		}
		if q.Get("query") != "an" || q.Get("search_by") != "name" {
			t.Errorf("Поиск: query=%s search_by=%s", q.Get("query"), q.Get("search_by"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code":    "200",
			"message": "ok",
			"data": map[string]any{
				"users": []map[string]any{
					{"id": "u-1", "name": "An", "email": "an@example.com", "role": "student"},
				},
				"total": 41,
			},
		})
	})

	page, err := client.ListUsers(context.Background(), "tok", UserQuery{
		Page: 2, Limit: 20, Query: "an", SearchBy: "name",
	})
	if err != nil {
		t.Fatalf("ListUsers вернул ошибку: %v", err)
	}
	if len(page.Users) != 1 || page.Users[0].Email != "an@example.com" {
		t.Errorf("Users: получили %+v", page.Users)
	}
	if page.Total != 41 {
		t.Errorf("Total: want 41, got %d", page.Total)
	}
	if page.Page != 2 || page.Limit != 20 {
		t.Errorf("Пагинация не проставлена: page=%d limit=%d", page.Page, page.Limit)
	}
}

// TestClient_UpdateUserRole проверяет PATCH /users/update-role/{id}.
func TestClient_UpdateUserRole(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Method: want PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/users/update-role/u-9" {
			t.Errorf("Path: got %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["new_role"] != "manager" {
			t.Errorf("new_role: want manager, got %q", body["new_role"])
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.UpdateUserRole(context.Background(), "tok", "u-9", rbac.RoleManager); err != nil {
		t.Fatalf("UpdateUserRole вернул ошибку: %v", err)
	}
}

// TestClient_ErrorTaxonomy — классификация статусов авторизованных запросов.
func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"403 → ErrForbidden", http.StatusForbidden, ErrForbidden},
		{"500 → ErrServer", http.StatusInternalServerError, ErrServer},
		{"503 → ErrServer", http.StatusServiceUnavailable, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.ListAssistants(context.Background(), "tok")
			if !errors.Is(err, tt.want) {
				t.Errorf("Ожидали %v, получили: %v", tt.want, err)
			}
		})
	}
}

// TestClient_APIErrorDetail — прочие 4xx дают APIError с detail
// из FastAPI-тела.
func TestClient_APIErrorDetail(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"detail": "model already exists"})
	})

	err := client.CreateAssistant(context.Background(), "tok", model.NewAssistantModel{
		Name:      "x",
		BaseModel: "base",
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Ожидали APIError, получили: %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode: want 409, got %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "model already exists" {
		t.Errorf("Detail: want %q, got %q", "model already exists", apiErr.Detail)
	}
}

// TestClient_NetworkError — транспортная ошибка оборачивается в ErrNetwork.
func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(server.URL, time.Second, testLogger())
	server.Close()

	_, err := client.Me(context.Background(), "tok")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Ожидали ErrNetwork, получили: %v", err)
	}
}

// TestClient_GenerateIframeURL проверяет распаковку строки из конверта.
func TestClient_GenerateIframeURL(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/iframe/generate_iframe_url" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": "200",
			"data": "https://analytics.lms.local/embed?sig=abc",
		})
	})

	u, err := client.GenerateIframeURL(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GenerateIframeURL вернул ошибку: %v", err)
	}
	if u != "https://analytics.lms.local/embed?sig=abc" {
		t.Errorf("URL: got %q", u)
	}
}
