package middleware

import (
	"net/http"

	"github.com/bfhl/bfhl/internal/server/envelope"
)

// Identity stamps the configured official email onto every request context so
// all envelopes, including router-level 404/405 and rejections, carry it. An
// empty email leaves the context untouched and envelopes render null.
func Identity(officialEmail func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if officialEmail != nil {
				if email := officialEmail(); email != "" {
					r = r.WithContext(envelope.WithOfficialEmail(r.Context(), email))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
