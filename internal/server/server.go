// Пакет server — HTTP-сервер Web Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/golms/web-module/internal/config"
	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/ui/handlers"
	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/golms/web-module/internal/ui/middleware"
	"github.com/bigkaa/golms/web-module/internal/ui/static"
)

// Handlers — обработчики, монтируемые на маршруты сервера.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Landing    *handlers.LandingHandler
	Users      *handlers.UsersHandler
	Assistants *handlers.AssistantsHandler
	Analytics  *handlers.AnalyticsHandler
	Health     *handlers.HealthHandler
}

// Server — HTTP-сервер Web Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers, sessionAuth *uimiddleware.SessionAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(uimiddleware.MetricsMiddleware())
	router.Use(uimiddleware.RequestLogger(logger))
	router.Use(i18n.Middleware(cfg.DefaultLang))

	// Публичные маршруты: вход, статика, метрики, health, язык.
	router.Get(rbac.LoginPath, h.Auth.HandleLoginPage)
	router.Post(rbac.LoginPath, h.Auth.HandleLogin)
	router.Post("/auth/google/callback", h.Auth.HandleGoogleCallback)
	router.Post("/auth/logout", h.Auth.HandleLogout)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health/live", h.Health.HandleLive)
	router.Get("/health/ready", h.Health.HandleReady)
	router.Get("/lang", handlers.HandleSetLanguage)
	router.Post("/lang", handlers.HandleSetLanguage)

	// Корень: redirect в область текущей роли.
	router.Group(func(r chi.Router) {
		r.Use(sessionAuth.Middleware())
		r.Get("/", h.Landing.HandleRoot)
	})

	// Ролевые области. Каждая область видна только своей роли;
	// чужая роль перенаправляется на собственную стартовую страницу.
	mountArea(router, sessionAuth, h, rbac.RoleAdmin, true, true)
	mountArea(router, sessionAuth, h, rbac.RoleManager, true, false)
	mountArea(router, sessionAuth, h, rbac.RoleDirector, false, false)
	mountArea(router, sessionAuth, h, rbac.RoleTeacher, false, false)
	mountArea(router, sessionAuth, h, rbac.RoleStudent, false, false)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// mountArea монтирует ролевую область: стартовая страница и экраны,
// положенные роли. withUsers/withAssistants включают административные
// экраны; аналитика есть у ролей admin, manager и director.
func mountArea(router chi.Router, sessionAuth *uimiddleware.SessionAuth, h Handlers, role rbac.Role, withUsers, withAssistants bool) {
	base := rbac.ResolveLandingRoute(role)

	router.Route(base, func(r chi.Router) {
		r.Use(sessionAuth.Middleware())
		r.Use(sessionAuth.RequireRoles(role))

		r.Get("/", h.Landing.HandleLanding)

		if withUsers {
			r.Get("/users", h.Users.HandleList)
			r.Post("/users/role", h.Users.HandleChangeRole)
		}
		if withAssistants {
			r.Get("/assistants", h.Assistants.HandleList)
			r.Post("/assistants/create", h.Assistants.HandleCreate)
			r.Post("/assistants/update", h.Assistants.HandleUpdate)
			r.Post("/assistants/delete", h.Assistants.HandleDelete)
			r.Post("/assistants/toggle", h.Assistants.HandleToggle)
		}
		if role == rbac.RoleAdmin || role == rbac.RoleManager || role == rbac.RoleDirector {
			r.Get("/analytics", h.Analytics.HandleAnalytics)
		}

		r.NotFound(h.Landing.HandleNotFound)
	})
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
