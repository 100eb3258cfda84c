// metrics.go — Prometheus HTTP метрики Ticket Wallet.
// Регистрирует метрики: tw_http_requests_total, tw_http_request_duration_seconds.
// Бизнес-метрики (tw_tickets_total, tw_operations_total) регистрируются
// здесь же и обновляются из сервисного слоя.
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
			Name: "tw_http_requests_total",
			Help: "Общее количество HTTP-запросов к Ticket Wallet",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tw_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Ticket Wallet в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// TicketsTotal — текущее количество билетов в кошельке (gauge).
	TicketsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tw_tickets_total",
			Help: "Текущее количество билетов в кошельке",
		},
	)

	// OperationsTotal — общее количество операций над билетами.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tw_operations_total",
			Help: "Общее количество операций над билетами",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем id билета на {id} для предотвращения кардинальности)
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

// normalizePath заменяет id билета в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/tickets/1756400000000 → /api/v1/tickets/{id}
func normalizePath(path string) string {
	const prefix = "/api/v1/tickets/"

	switch {
	case path == "/health/live", path == "/health/ready", path == "/metrics",
		path == "/api/v1/tickets":
		return path
	case strings.HasPrefix(path, prefix):
		rest := path[len(prefix):]
		if strings.HasSuffix(rest, "/pdf") {
			return prefix + "{id}/pdf"
		}
		if rest != "" && !strings.Contains(rest, "/") {
			return prefix + "{id}"
		}
	}
	return path
}
