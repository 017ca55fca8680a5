// metrics.go — Prometheus HTTP метрики Web Module.
// Регистрирует метрики: wm_http_requests_total, wm_http_request_duration_seconds,
// wm_login_attempts_total.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wm_http_requests_total",
			Help: "Общее количество HTTP-запросов к Web Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Web Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// loginAttemptsTotal — попытки входа по способу и исходу.
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wm_login_attempts_total",
			Help: "Попытки входа в Web Module",
		},
		[]string{"login_type", "outcome"},
	)
)

// ObserveLogin фиксирует попытку входа.
// login_type: local|google; outcome: success|rejected|error.
func ObserveLogin(loginType, outcome string) {
	loginAttemptsTotal.WithLabelValues(loginType, outcome).Inc()
}

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (убираем динамические сегменты для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath схлопывает лейбл пути до верхнеуровневой области,
// чтобы кардинальность метрик не росла со страницами и ассетами.
func normalizePath(path string) string {
	switch path {
	case "/", "/metrics", "/health/live", "/health/ready", "/lang":
		return path
	}

	for _, prefix := range []string{
		"/auth", "/static",
		"/admin", "/manager", "/director", "/teacher", "/student",
	} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return prefix
		}
	}
	return "/other"
}
