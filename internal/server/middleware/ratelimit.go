package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/ratelimit"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitResponder writes the rejection body for a request over its limit.
// The server injects the centralized error responder here.
type RateLimitResponder func(w http.ResponseWriter, r *http.Request, decision ratelimit.Decision)

// KeyFunc derives the client identity used as the limiter key.
type KeyFunc func(r *http.Request) string

// ClientAddress keys requests by the remote host. Proxy headers count only
// when the server mounts chi's RealIP ahead of this middleware.
func ClientAddress(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// RateLimit admits or rejects each request through limiter. Key extraction or
// store failures are logged and the request proceeds.
func RateLimit(limiter *ratelimit.Limiter, keyFunc KeyFunc, reject RateLimitResponder) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ClientAddress
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil {
				metrics.RecordRateLimitStoreError()
				if observability.ServerLogger != nil {
					observability.ServerLogger.Warn("Rate limiter failed, admitting request",
						zap.Error(err),
						zap.String("remote_addr", r.RemoteAddr),
						zap.String("request_id", GetRequestID(r.Context())),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			writeRateLimitHeaders(w, decision)
			metrics.RecordRateLimitDecision(decision.Allowed)

			if !decision.Allowed {
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(decision)))
				if reject != nil {
					reject(w, r, decision)
				} else {
					w.WriteHeader(http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
	if !decision.ResetAt.IsZero() {
		h.Set(HeaderRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))
	}
}

// retryAfterSeconds rounds up so clients never retry inside the window.
func retryAfterSeconds(decision ratelimit.Decision) int {
	seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
