package metrics

import (
	"time"

	"github.com/bfhl/bfhl/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Operation metrics, labelled by request kind (fibonacci, prime, lcm, hcf, AI)
	OperationsTotal       = "bfhl_operations_total"
	OperationsErrorsTotal = "bfhl_operations_errors_total"
	OperationDuration     = "bfhl_operation_duration_ms"

	// Rate limiter metrics
	RateLimitDecisionsTotal = "bfhl_rate_limit_decisions_total"
	RateLimitStoreErrors    = "bfhl_rate_limit_store_errors_total"
	RateLimitTrackedClients = "bfhl_rate_limit_tracked_clients"
	RateLimitSweptTotal     = "bfhl_rate_limit_swept_total"

	// Upstream AI metrics
	AICallsTotal   = "bfhl_ai_calls_total"
	AICallDuration = "bfhl_ai_call_duration_ms"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordOperation records a dispatched operation with its outcome.
func RecordOperation(kind string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OperationsTotal,
			1,
			map[string]string{
				"kind":   kind,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			OperationDuration,
			duration,
			map[string]string{
				"kind": kind,
			},
		)
	}
}

// RecordOperationError records a failed operation by error code.
func RecordOperationError(kind string, errorCode string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OperationsErrorsTotal,
			1,
			map[string]string{
				"kind":       kind,
				"error_code": errorCode,
			},
		)
	}
}

// RecordRateLimitDecision counts admitted and rejected requests.
func RecordRateLimitDecision(allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "rejected"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitDecisionsTotal,
			1,
			map[string]string{"decision": decision},
		)
	}
}

// RecordRateLimitStoreError counts limiter store failures (requests are admitted).
func RecordRateLimitStoreError() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(RateLimitStoreErrors, 1, nil)
	}
}

// RecordRateLimitSweep records one janitor pass.
func RecordRateLimitSweep(removed int, tracked int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitSweptTotal,
			float64(removed),
			nil,
		)
		_ = observability.TelemetrySystem.Gauge(
			RateLimitTrackedClients,
			float64(tracked),
			nil,
		)
	}
}

// RecordAICall records an upstream AI call. outcome is "success" or an error kind.
func RecordAICall(provider string, outcome string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AICallsTotal,
			1,
			map[string]string{
				"provider": provider,
				"outcome":  outcome,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			AICallDuration,
			duration,
			map[string]string{
				"provider": provider,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
