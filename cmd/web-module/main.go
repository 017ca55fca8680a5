// Точка входа Web Module — web-портал LMS.
// Загружает конфигурацию, создаёт клиент backend и верификатор Google
// ID-токенов, инициализирует менеджер сессий и UI handlers,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/golms/web-module/internal/config"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/server"
	"github.com/bigkaa/golms/web-module/internal/session"
	uihandlers "github.com/bigkaa/golms/web-module/internal/ui/handlers"
	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/golms/web-module/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Web Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend", cfg.BackendURL),
	)

	// 3. Каталоги переводов (en, vi)
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки i18n каталогов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент LMS backend
	lms := lmsclient.New(cfg.BackendURL, cfg.HTTPClientTimeout, logger)

	// 5. Верификатор Google ID-токенов с фоновым обновлением JWKS
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	verifier, err := session.NewGoogleVerifier(ctx, cfg.GoogleClientID, cfg.GoogleJWKSURL, cfg.JWKSRefreshInterval, logger)
	if err != nil {
		logger.Error("Ошибка создания Google верификатора", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Хранилище сессии: token cookie и зашифрованное зеркало профиля
	secure := cfg.SecureCookies()
	tokens := session.NewTokenStore(secure, cfg.SessionTTL)
	profiles, err := session.NewProfileCodec(cfg.SessionSecret, secure, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка инициализации profile cookie", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("WM_SESSION_SECRET не задан: сессии не переживут рестарт")
	}

	// 7. Менеджер сессий
	sessions := session.NewManager(session.Config{
		API:       lms,
		Tokens:    tokens,
		Profiles:  profiles,
		Google:    verifier,
		Logger:    logger,
		CacheSize: cfg.ProfileCacheSize,
		CacheTTL:  cfg.ProfileCacheTTL,
	})

	// Мёртвый токен, замеченный клиентом backend, не должен оставлять
	// насыщенный кэш: teardown cookie-части произойдёт на границе запроса.
	lms.SetUnauthorizedHook(sessions.InvalidateCache)

	// 8. Middleware и UI handlers
	sessionAuth := uimiddleware.NewSessionAuth(sessions, logger)

	h := server.Handlers{
		Auth:       uihandlers.NewAuthHandler(sessions, cfg.GoogleClientID, cfg.PublicBaseURL, logger),
		Landing:    uihandlers.NewLandingHandler(logger),
		Users:      uihandlers.NewUsersHandler(lms, sessions, logger),
		Assistants: uihandlers.NewAssistantsHandler(lms, sessions, logger),
		Analytics:  uihandlers.NewAnalyticsHandler(lms, sessions, cfg.IframeCacheTTL, logger),
		Health:     uihandlers.NewHealthHandler(lms, logger),
	}

	// 9. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, h, sessionAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
