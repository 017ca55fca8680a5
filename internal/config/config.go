// Пакет config — загрузка и валидация конфигурации Web Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// JWKS endpoint Google по умолчанию (для проверки подписи id_token).
const defaultGoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Config содержит все параметры конфигурации Web Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- LMS Backend ---

	// Базовый URL backend REST API (например, https://api.lms.local)
	BackendURL string
	// Таймаут исходящих HTTP-запросов к backend
	HTTPClientTimeout time.Duration

	// --- Публичный адрес ---

	// Внешний URL приложения (scheme+host). Если https — cookie
	// устанавливаются с флагом Secure.
	PublicBaseURL string

	// --- Google Sign-In ---

	// OAuth Client ID Google (audience для проверки id_token)
	GoogleClientID string
	// URL JWKS endpoint Google
	GoogleJWKSURL string
	// Интервал фонового обновления JWKS-ключей
	JWKSRefreshInterval time.Duration

	// --- Сессии ---

	// Ключ шифрования profile cookie (AES-256-GCM)
	SessionSecret string
	// Время жизни cookie с bearer-токеном
	SessionTTL time.Duration

	// --- Кэши ---

	// Максимальный размер кэша профилей
	ProfileCacheSize int
	// TTL записи кэша профилей
	ProfileCacheTTL time.Duration
	// TTL кэша iframe URL аналитики
	IframeCacheTTL time.Duration

	// --- Локализация ---

	// Язык по умолчанию (en, vi)
	DefaultLang string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// SecureCookies возвращает true, если публичный URL использует https
// и cookie должны устанавливаться с флагом Secure.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicBaseURL, "https://")
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// WM_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("WM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("WM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("WM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// WM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("WM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("WM_LOG_LEVEL: %w", err)
	}

	// WM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("WM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("WM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- LMS Backend ---

	// WM_BACKEND_URL — обязательный
	cfg.BackendURL, err = getEnvRequired("WM_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if _, parseErr := url.Parse(cfg.BackendURL); parseErr != nil {
		return nil, fmt.Errorf("WM_BACKEND_URL: некорректный URL %q: %w", cfg.BackendURL, parseErr)
	}

	// WM_HTTP_CLIENT_TIMEOUT — таймаут запросов к backend (по умолчанию 30s)
	cfg.HTTPClientTimeout, err = getEnvDuration("WM_HTTP_CLIENT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("WM_HTTP_CLIENT_TIMEOUT: %w", err)
	}

	// --- Публичный адрес ---

	// WM_PUBLIC_BASE_URL — обязательный
	cfg.PublicBaseURL, err = getEnvRequired("WM_PUBLIC_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	// --- Google Sign-In ---

	// WM_GOOGLE_CLIENT_ID — обязательный
	cfg.GoogleClientID, err = getEnvRequired("WM_GOOGLE_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	// WM_GOOGLE_JWKS_URL — JWKS endpoint Google (по умолчанию стандартный)
	cfg.GoogleJWKSURL = getEnvDefault("WM_GOOGLE_JWKS_URL", defaultGoogleJWKSURL)

	// WM_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("WM_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("WM_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// --- Сессии ---

	// WM_SESSION_SECRET — опциональный (при отсутствии генерируется
	// случайный ключ, profile cookie не переживают рестарт)
	cfg.SessionSecret = getEnvDefault("WM_SESSION_SECRET", "")

	// WM_SESSION_TTL — время жизни token cookie (по умолчанию 720h = 30 дней,
	// как у access_token cookie backend)
	cfg.SessionTTL, err = getEnvDuration("WM_SESSION_TTL", 720*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("WM_SESSION_TTL: %w", err)
	}

	// --- Кэши ---

	// WM_PROFILE_CACHE_SIZE — размер кэша профилей (по умолчанию 1024)
	cfg.ProfileCacheSize, err = getEnvInt("WM_PROFILE_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("WM_PROFILE_CACHE_SIZE: %w", err)
	}
	if cfg.ProfileCacheSize < 1 {
		return nil, fmt.Errorf("WM_PROFILE_CACHE_SIZE: значение %d должно быть положительным", cfg.ProfileCacheSize)
	}

	// WM_PROFILE_CACHE_TTL — TTL кэша профилей (по умолчанию 30s)
	cfg.ProfileCacheTTL, err = getEnvDuration("WM_PROFILE_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("WM_PROFILE_CACHE_TTL: %w", err)
	}

	// WM_IFRAME_CACHE_TTL — TTL кэша iframe URL (по умолчанию 5m)
	cfg.IframeCacheTTL, err = getEnvDuration("WM_IFRAME_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("WM_IFRAME_CACHE_TTL: %w", err)
	}

	// --- Локализация ---

	// WM_DEFAULT_LANG — язык по умолчанию (по умолчанию vi)
	cfg.DefaultLang = getEnvDefault("WM_DEFAULT_LANG", "vi")
	if cfg.DefaultLang != "en" && cfg.DefaultLang != "vi" {
		return nil, fmt.Errorf("WM_DEFAULT_LANG: недопустимое значение %q, допустимые: en, vi", cfg.DefaultLang)
	}

	// --- Graceful shutdown ---

	// WM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("WM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("WM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
