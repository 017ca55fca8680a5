package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/golms/web-module/internal/domain/model"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
)

// State — наблюдаемое состояние сессии.
type State int

const (
	// StateAnonymous — токена нет, пользователь не аутентифицирован.
	StateAnonymous State = iota
	// StateAuthenticating — попытка входа в процессе.
	StateAuthenticating
	// StateAuthenticated — токен есть, профиль известен.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrNoSession — запрошена операция над сессией, которой нет.
	ErrNoSession = errors.New("сессия отсутствует")
	// ErrLoginSuperseded — попытка входа завершилась после того, как
	// её вытеснил logout или новая попытка; результат отброшен.
	ErrLoginSuperseded = errors.New("попытка входа вытеснена")
	// ErrProfileFetchFailed — токен получен, но профиль загрузить не
	// удалось. Вход не засчитан, токен не сохранён.
	ErrProfileFetchFailed = errors.New("не удалось загрузить профиль после входа")
)

// API — операции backend, нужные менеджеру сессий.
// Реализуется lmsclient.Client.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	VerifyGoogleIDToken(ctx context.Context, idToken string) (string, error)
	Me(ctx context.Context, token string) (model.Profile, error)
	Logout(ctx context.Context, token string) error
}

// Manager — единственный писатель состояния сессии. Все переходы
// (вход, выход, teardown, ревалидация) идут через него; handlers
// только читают Record из контекста.
type Manager struct {
	api      API
	tokens   *TokenStore
	profiles *ProfileCodec
	google   *GoogleVerifier
	logger   *slog.Logger

	// cache — профили по digest токена; смягчает /users/me на каждой
	// навигации. TTL короткий: смена роли видна без повторного входа.
	cache *expirable.LRU[string, Record]

	// attempt — счётчик попыток входа. Logout/Teardown инкрементируют;
	// завершение входа сверяет свой номер и отбрасывает устаревший
	// результат.
	attempt atomic.Uint64
}

// Config — зависимости менеджера сессий.
type Config struct {
	API       API
	Tokens    *TokenStore
	Profiles  *ProfileCodec
	Google    *GoogleVerifier
	Logger    *slog.Logger
	CacheSize int
	CacheTTL  time.Duration
}

// NewManager создаёт менеджер сессий.
func NewManager(cfg Config) *Manager {
	return &Manager{
		api:      cfg.API,
		tokens:   cfg.Tokens,
		profiles: cfg.Profiles,
		google:   cfg.Google,
		logger:   cfg.Logger,
		cache:    expirable.NewLRU[string, Record](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// SubmitCredentials выполняет вход по email/паролю.
// При успехе персистит токен и профиль и возвращает запись сессии.
// При любой ошибке состояние не меняется: частичных сессий не бывает.
func (m *Manager) SubmitCredentials(ctx context.Context, w http.ResponseWriter, email, password string) (*Record, error) {
	attempt := m.beginAttempt()

	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return m.completeLogin(ctx, w, attempt, token, model.LoginTypeLocal)
}

// SubmitGoogleAssertion выполняет вход по Google ID-токену:
// локальная проверка подписи, обмен на backend-токен, загрузка
// профиля. Отклонение на любом шаге оставляет состояние нетронутым.
func (m *Manager) SubmitGoogleAssertion(ctx context.Context, w http.ResponseWriter, idToken string) (*Record, error) {
	attempt := m.beginAttempt()

	if _, err := m.google.Verify(ctx, idToken); err != nil {
		return nil, err
	}

	token, err := m.api.VerifyGoogleIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	return m.completeLogin(ctx, w, attempt, token, model.LoginTypeGoogle)
}

// completeLogin — общий хвост обоих способов входа: загрузка профиля,
// проверка актуальности попытки, персист.
func (m *Manager) completeLogin(ctx context.Context, w http.ResponseWriter, attempt uint64, token string, lt model.LoginType) (*Record, error) {
	profile, err := m.api.Me(ctx, token)
	if err != nil {
		m.logger.Warn("Токен получен, но профиль недоступен", "error", err)
		return nil, ErrProfileFetchFailed
	}

	rec := recordFromProfile(profile, token, lt)

	// Пока шёл вход, мог случиться logout или стартовать новая
	// попытка. Устаревший результат не должен воскресить сессию.
	if !m.attemptCurrent(attempt) {
		m.logger.Info("Результат входа отброшен как устаревший", "email", rec.Email)
		return nil, ErrLoginSuperseded
	}

	m.persist(w, rec)
	m.logger.Info("Вход выполнен", "email", rec.Email, "role", rec.Role, "login_type", rec.LoginType)
	return &rec, nil
}

// Refresh — ревалидация на границе навигации. Порядок источников:
// кэш профилей, затем /users/me. ErrUnauthorized от backend — токен
// мёртв, полный teardown. Временные ошибки (сеть, 5xx) не разрушают
// сессию: используется зашифрованное зеркало профиля.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Record, State) {
	token, ok := m.tokens.Read(r)
	if !ok {
		return nil, StateAnonymous
	}

	digest := tokenDigest(token)
	if rec, ok := m.cache.Get(digest); ok {
		rec.BackendToken = token
		return &rec, StateAuthenticated
	}

	profile, err := m.api.Me(ctx, token)
	if err != nil {
		if errors.Is(err, lmsclient.ErrUnauthorized) {
			m.logger.Info("Токен отклонён backend, завершение сессии")
			m.Teardown(w)
			return nil, StateAnonymous
		}

		// Временный сбой: верим последнему известному профилю.
		rec, perr := m.profiles.Get(r)
		if perr != nil || rec == nil {
			m.logger.Warn("Backend недоступен и зеркало профиля нечитаемо", "error", err)
			m.Teardown(w)
			return nil, StateAnonymous
		}
		m.logger.Warn("Backend недоступен, используется зеркало профиля", "error", err)
		rec.BackendToken = token
		return rec, StateAuthenticated
	}

	rec := recordFromProfile(profile, token, profile.LoginType)
	m.cache.Add(digest, rec)
	if err := m.profiles.Set(w, rec); err != nil {
		m.logger.Warn("Не удалось обновить зеркало профиля", "error", err)
	}
	return &rec, StateAuthenticated
}

// Current возвращает состояние сессии без похода в backend:
// только токен и зеркало профиля.
func (m *Manager) Current(r *http.Request) (*Record, State) {
	token, ok := m.tokens.Read(r)
	if !ok {
		return nil, StateAnonymous
	}
	rec, err := m.profiles.Get(r)
	if err != nil || rec == nil {
		return nil, StateAnonymous
	}
	rec.BackendToken = token
	return rec, StateAuthenticated
}

// Logout завершает сессию: best-effort уведомление backend, затем
// безусловный teardown. Ошибка backend не мешает локальному выходу.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if token, ok := m.tokens.Read(r); ok {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Warn("Backend logout не удался, локальный выход продолжается", "error", err)
		}
	}
	m.Teardown(w)
}

// Teardown — идемпотентная очистка всего состояния сессии: счётчик
// попыток, кэш профилей, обе cookies. Безопасен при отсутствии сессии.
func (m *Manager) Teardown(w http.ResponseWriter) {
	m.attempt.Add(1)
	m.cache.Purge()
	m.tokens.Clear(w)
	m.profiles.Clear(w)
}

// InvalidateCache сбрасывает кэш профилей. Вызывается hook-ом клиента
// backend при 401: следующая навигация пройдёт полную ревалидацию
// и снесёт cookie-часть сессии на границе запроса.
func (m *Manager) InvalidateCache() {
	m.cache.Purge()
}

// persist атомарно с точки зрения наблюдателя записывает токен и
// зеркало профиля и прогревает кэш.
func (m *Manager) persist(w http.ResponseWriter, rec Record) {
	m.tokens.Persist(w, rec.BackendToken)
	if err := m.profiles.Set(w, rec); err != nil {
		m.logger.Warn("Не удалось записать зеркало профиля", "error", err)
	}
	m.cache.Add(tokenDigest(rec.BackendToken), rec)
}

// beginAttempt регистрирует новую попытку входа и возвращает её номер.
func (m *Manager) beginAttempt() uint64 {
	return m.attempt.Add(1)
}

// attemptCurrent сообщает, остаётся ли попытка актуальной.
func (m *Manager) attemptCurrent(attempt uint64) bool {
	return m.attempt.Load() == attempt
}

// tokenDigest — ключ кэша профилей. Сам токен в ключах не хранится.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
