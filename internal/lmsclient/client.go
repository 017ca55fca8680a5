// Пакет lmsclient — HTTP-клиент к REST API LMS backend.
// Единственная точка исходящих запросов: навешивает маркерный заголовок
// X-Requested-With (CSRF-проверка backend), прикрепляет bearer-токен,
// классифицирует ответы по таксономии ошибок и уведомляет о 401
// через зарегистрированный hook. Запросы никогда не повторяются —
// защита от циклов при teardown.
package lmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
)

// Маркерный заголовок программного (не навигационного) запроса.
// Backend отклоняет запросы без него (CSRF-проверка).
const (
	markerHeader = "X-Requested-With"
	markerValue  = "XMLHttpRequest"
)

// Client — HTTP-клиент к LMS backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// onUnauthorized вызывается при 401 на авторизованном запросе
	// (инвалидация кэшей сессионного слоя). Может быть nil.
	onUnauthorized func()
}

// New создаёт клиент к LMS backend.
// baseURL — базовый URL API (без trailing slash).
// timeout — таймаут HTTP-запросов.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "lms_client")),
	}
}

// SetUnauthorizedHook регистрирует обработчик 401 на авторизованных
// запросах. Вызывается не более одного раза на логический запрос
// (клиент не повторяет запросы).
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// --- Ответы backend ---

// loginResponse — ответ POST /auth/login и /auth/google/verify-id-token.
type loginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// baseResponse — общий конверт ответов backend {code, message, data}.
type baseResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// errorBody — тело ошибки backend (FastAPI-стиль: поле detail).
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// --- Аутентификация ---

// Login выполняет POST /auth/login с парой email/пароль.
// Возвращает выданный backend bearer-токен.
// 401 → ErrInvalidCredentials (teardown не выполняется: пользователь
// ещё не аутентифицирован, это восстановимая ошибка формы).
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.send(ctx, http.MethodPost, "/auth/login", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrInvalidCredentials
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("декодирование ответа login: %w", err)
	}
	if lr.Status != "success" || lr.Token == "" {
		return "", ErrInvalidCredentials
	}
	return lr.Token, nil
}

// VerifyGoogleIDToken выполняет POST /auth/google/verify-id-token.
// Обменивает внешний Google id_token на backend-токен.
// 401 → ErrIdentityRejected.
func (c *Client) VerifyGoogleIDToken(ctx context.Context, idToken string) (string, error) {
	body := map[string]string{"id_token": idToken}

	resp, err := c.send(ctx, http.MethodPost, "/auth/google/verify-id-token", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrIdentityRejected
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("декодирование ответа verify-id-token: %w", err)
	}
	if lr.Status != "success" || lr.Token == "" {
		return "", ErrIdentityRejected
	}
	return lr.Token, nil
}

// Me выполняет GET /users/me с указанным токеном.
// Возвращает канонический профиль пользователя.
func (c *Client) Me(ctx context.Context, token string) (model.Profile, error) {
	var raw struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Email           string `json:"email"`
		Role            string `json:"role"`
		Avatar          string `json:"avatar"`
		LoginType       string `json:"login_type"`
		PasswordChanged bool   `json:"password_changed"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", token, nil, &raw); err != nil {
		return model.Profile{}, err
	}

	return model.Profile{
		ID:              raw.ID,
		Name:            raw.Name,
		Email:           raw.Email,
		Role:            rbac.ParseRole(raw.Role),
		Avatar:          raw.Avatar,
		LoginType:       model.ParseLoginType(raw.LoginType),
		PasswordChanged: raw.PasswordChanged,
	}, nil
}

// Logout выполняет POST /users/logout — backend добавляет токен в blacklist.
// Ошибки не фатальны для вызывающего: локальный teardown выполняется всегда.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/users/logout", token, nil, nil)
}

// --- Пользователи (административный экран) ---

// UserQuery — параметры постраничного запроса списка пользователей.
type UserQuery struct {
	Page     int
	Limit    int
	Query    string
	SearchBy string // name | email
}

// ListUsers выполняет GET /users с пагинацией и поиском.
func (c *Client) ListUsers(ctx context.Context, token string, q UserQuery) (model.UserPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Query != "" {
		params.Set("query", q.Query)
		params.Set("search_by", q.SearchBy)
	}

	path := "/users"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page model.UserPage
	if err := c.doEnvelope(ctx, http.MethodGet, path, token, nil, &page); err != nil {
		return model.UserPage{}, err
	}
	page.Page = q.Page
	page.Limit = q.Limit
	return page, nil
}

// UpdateUserRole выполняет PATCH /users/update-role/{id}.
func (c *Client) UpdateUserRole(ctx context.Context, token, userID string, newRole rbac.Role) error {
	body := map[string]string{"new_role": string(newRole)}
	path := "/users/update-role/" + url.PathEscape(userID)
	return c.doJSON(ctx, http.MethodPatch, path, token, body, nil)
}

// --- AI-ассистенты (административный экран) ---

// ListAssistants выполняет GET /models.
func (c *Client) ListAssistants(ctx context.Context, token string) ([]model.AssistantModel, error) {
	var assistants []model.AssistantModel
	if err := c.doEnvelope(ctx, http.MethodGet, "/models", token, nil, &assistants); err != nil {
		return nil, err
	}
	return assistants, nil
}

// ListBaseModels выполняет GET /models/base — каталог базовых моделей
// для формы создания ассистента.
func (c *Client) ListBaseModels(ctx context.Context, token string) ([]string, error) {
	var base []string
	if err := c.doEnvelope(ctx, http.MethodGet, "/models/base", token, nil, &base); err != nil {
		return nil, err
	}
	return base, nil
}

// CreateAssistant выполняет POST /models.
func (c *Client) CreateAssistant(ctx context.Context, token string, m model.NewAssistantModel) error {
	return c.doJSON(ctx, http.MethodPost, "/models", token, m, nil)
}

// UpdateAssistant выполняет PUT /models/{id}.
func (c *Client) UpdateAssistant(ctx context.Context, token, id string, m model.NewAssistantModel) error {
	return c.doJSON(ctx, http.MethodPut, "/models/"+url.PathEscape(id), token, m, nil)
}

// DeleteAssistant выполняет DELETE /models/{id}.
func (c *Client) DeleteAssistant(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/models/"+url.PathEscape(id), token, nil, nil)
}

// ToggleAssistantActive выполняет PUT /models/toggle/is-active/{id}.
func (c *Client) ToggleAssistantActive(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodPut, "/models/toggle/is-active/"+url.PathEscape(id), token, nil, nil)
}

// --- Аналитика (iframe) ---

// GenerateIframeURL выполняет GET /iframe/generate_iframe_url.
// Возвращает URL внешней аналитики для встраивания.
func (c *Client) GenerateIframeURL(ctx context.Context, token string) (string, error) {
	var u string
	if err := c.doEnvelope(ctx, http.MethodGet, "/iframe/generate_iframe_url", token, nil, &u); err != nil {
		return "", err
	}
	return u, nil
}

// DashboardURL выполняет GET /iframe/dashboard — URL role-scoped
// дашборда. groupID опционален.
func (c *Client) DashboardURL(ctx context.Context, token, groupID string) (string, error) {
	path := "/iframe/dashboard"
	if groupID != "" {
		path += "?group_id=" + url.QueryEscape(groupID)
	}

	var u string
	if err := c.doEnvelope(ctx, http.MethodGet, path, token, nil, &u); err != nil {
		return "", err
	}
	return u, nil
}

// --- Readiness ---

// Ping проверяет доступность backend (для readiness probe).
// Любой HTTP-ответ считается успехом: важна достижимость, не статус.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("создание запроса ping: %w", err)
	}
	req.Header.Set(markerHeader, markerValue)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend недоступен: %w: %w", ErrNetwork, err)
	}
	resp.Body.Close()
	return nil
}

// --- HTTP helpers ---

// send строит и выполняет запрос с маркерным заголовком и bearer-токеном.
// Транспортные ошибки оборачиваются в ErrNetwork. Статус не проверяется.
func (c *Client) send(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}

	req.Header.Set(markerHeader, markerValue)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос %s %s: %w: %w", method, path, ErrNetwork, err)
	}
	return resp, nil
}

// doJSON выполняет авторизованный запрос, классифицирует статус и
// декодирует 2xx-ответ в out (если out != nil).
// Запрос выполняется ровно один раз: 401 приводит к teardown сессии
// и redirect на login, поэтому повтор создал бы цикл.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	resp, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.classify(resp, method, path); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("декодирование ответа %s %s: %w", method, path, err)
		}
	}
	return nil
}

// doEnvelope — как doJSON, но распаковывает конверт {code, message, data}
// и декодирует поле data в out.
func (c *Client) doEnvelope(ctx context.Context, method, path, token string, body, out any) error {
	var envelope baseResponse
	if err := c.doJSON(ctx, method, path, token, body, &envelope); err != nil {
		return err
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("декодирование data из ответа %s %s: %w", method, path, err)
	}
	return nil
}

// classify проверяет статус авторизованного ответа по таксономии.
// 401 дополнительно дёргает onUnauthorized hook (инвалидация кэшей).
func (c *Client) classify(resp *http.Response, method, path string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Info("Backend вернул 401, сессия будет сброшена",
			slog.String("method", method),
			slog.String("path", path),
		)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)

	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, ErrForbidden)

	case resp.StatusCode >= 500:
		return fmt.Errorf("%s %s (статус %d): %w", method, path, resp.StatusCode, ErrServer)

	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}
}

// checkStatus — упрощённая проверка для неавторизованных (auth) запросов:
// 401 обрабатывается вызывающим до checkStatus.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("статус %d: %w", resp.StatusCode, ErrServer)
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}
}

// readDetail извлекает человекочитаемую деталь из тела ошибки backend.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if len(eb.Detail) > 0 {
			// detail бывает строкой или объектом {message, action}
			var s string
			if json.Unmarshal(eb.Detail, &s) == nil {
				return s
			}
			var obj struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(eb.Detail, &obj) == nil && obj.Message != "" {
				return obj.Message
			}
		}
	}
	return strings.TrimSpace(string(data))
}
