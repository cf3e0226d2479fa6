package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/server/envelope"
)

// Recovery turns a panic into a 500 envelope with the generic message. The
// panic value and stack go to the log only.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				panicErr := errors.NewErrorEnvelope("INTERNAL_ERROR", fmt.Sprintf("panic: %v", rec)).
					WithCorrelationID(GetRequestID(r.Context()))
				panicErr, _ = panicErr.WithSeverity(errors.SeverityCritical)

				metrics.RecordPanic(EndpointPattern(r))

				if observability.ServerLogger != nil {
					observability.ServerLogger.Error(panicErr.Message,
						zap.String("error_code", panicErr.Code),
						zap.String("request_id", panicErr.CorrelationID),
						zap.String("path", r.URL.Path),
						zap.String("stack_trace", string(debug.Stack())),
					)
				}

				envelope.Write(w, http.StatusInternalServerError,
					envelope.Failure(r.Context(), envelope.GenericErrorMessage))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
