package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/observability"
)

// Request metric names.
const (
	HTTPRequestsTotal   = "bfhl_http_requests_total"
	HTTPRequestDuration = "bfhl_http_request_duration_ms"
	HTTPResponseBytes   = "bfhl_http_response_size_bytes"
)

// EndpointPattern returns the matched chi route pattern, or a fixed label for
// requests that never reached a route (404s, rate-limit rejections).
func EndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	switch r.URL.Path {
	case "/bfhl", "/version", "/metrics":
		return r.URL.Path
	case "/health", "/health/ready":
		return "/health/*"
	default:
		return "/unknown"
	}
}

// RequestMetrics counts and times every request and logs one line per
// request. Metrics are skipped when telemetry is off; the log line is not.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		endpoint := EndpointPattern(r)

		if sys := observability.TelemetrySystem; sys != nil {
			labels := map[string]string{
				"method":   r.Method,
				"endpoint": endpoint,
				"status":   strconv.Itoa(status),
			}
			_ = sys.Counter(HTTPRequestsTotal, 1, labels)
			_ = sys.Histogram(HTTPRequestDuration, duration, labels)
			_ = sys.Gauge(HTTPResponseBytes, float64(ww.BytesWritten()), map[string]string{
				"endpoint": endpoint,
			})
		}

		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.Int64("request_size", r.ContentLength),
				zap.Int("response_size", ww.BytesWritten()),
				zap.String("client", ClientAddress(r)),
				zap.String("request_id", GetRequestID(r.Context())),
			)
		}
	})
}
