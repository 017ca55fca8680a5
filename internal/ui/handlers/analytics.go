// analytics.go — экран аналитики со встроенным dashboard.
// Подписанные iframe-URL короткоживущие, поэтому кэшируются
// в памяти с TTL меньше срока их действия.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/golms/web-module/internal/domain/rbac"
	"github.com/bigkaa/golms/web-module/internal/lmsclient"
	"github.com/bigkaa/golms/web-module/internal/session"
	"github.com/bigkaa/golms/web-module/internal/ui/pages"
)

// analyticsCacheSize — ёмкость кэша iframe-URL.
const analyticsCacheSize = 256

// AnalyticsHandler — обработчик экрана аналитики.
type AnalyticsHandler struct {
	lms      *lmsclient.Client
	sessions *session.Manager
	logger   *slog.Logger

	// urls — кэш подписанных iframe-URL по пользователю (и группе).
	urls *expirable.LRU[string, string]
}

// NewAnalyticsHandler создаёт AnalyticsHandler.
// cacheTTL должен быть меньше срока действия подписанных URL.
func NewAnalyticsHandler(lms *lmsclient.Client, sessions *session.Manager, cacheTTL time.Duration, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		lms:      lms,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui.analytics")),
		urls:     expirable.NewLRU[string, string](analyticsCacheSize, nil, cacheTTL),
	}
}

// HandleAnalytics обрабатывает GET /{area}/analytics.
// Query-параметр group переключает dashboard на конкретную группу.
func (h *AnalyticsHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	rec := requireRecord(w, r)
	if rec == nil {
		return
	}

	groupID := r.URL.Query().Get("group")
	cacheKey := rec.UserID
	if groupID != "" {
		cacheKey += ":" + groupID
	}

	iframeURL, ok := h.urls.Get(cacheKey)
	if !ok {
		var err error
		if groupID != "" {
			iframeURL, err = h.lms.DashboardURL(r.Context(), rec.BackendToken, groupID)
		} else {
			iframeURL, err = h.lms.GenerateIframeURL(r.Context(), rec.BackendToken)
		}
		if err != nil {
			// Мёртвый токен разрушает сессию; остальные ошибки
			// деградируют до заглушки, экран остаётся доступным.
			if isUnauthorized(err) {
				handleBackendError(w, r, h.sessions, h.logger, rec, err)
				return
			}
			h.logger.Warn("Не удалось получить iframe-URL", slog.String("error", err.Error()))
			iframeURL = ""
		} else {
			h.urls.Add(cacheKey, iframeURL)
		}
	}

	basePath := rbac.ResolveLandingRoute(rec.Role) + "/analytics"
	renderPage(w, r, h.logger, pages.Analytics(pages.AnalyticsData{
		UserName:  rec.Name,
		Links:     navLinksFor(rec.Role, basePath),
		IframeURL: iframeURL,
	}))
}
