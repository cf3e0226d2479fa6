package metrics

import (
	"strconv"

	"github.com/bfhl/bfhl/internal/observability"
)

// Error response metrics. Endpoint labels are route patterns, never raw paths.
const (
	HTTPErrorsTotal = "bfhl_http_errors_total"
	PanicsTotal     = "bfhl_panics_total"
)

// RecordHTTPError counts one error envelope written to a client.
func RecordHTTPError(endpoint string, errorCode string, httpStatus int) {
	if observability.TelemetrySystem == nil {
		return
	}
	class := "client_error"
	if httpStatus >= 500 {
		class = "server_error"
	}
	_ = observability.TelemetrySystem.Counter(HTTPErrorsTotal, 1, map[string]string{
		"endpoint":    endpoint,
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
		"class":       class,
	})
}

// RecordPanic counts a handler panic caught by the recovery middleware.
func RecordPanic(endpoint string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, map[string]string{"endpoint": endpoint})
}
