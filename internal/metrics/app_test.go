package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfhl/bfhl/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})

	return collector
}

func TestRecordOperation(t *testing.T) {
	collector := setupTelemetry(t)

	RecordOperation("fibonacci", true, 2*time.Millisecond)
	RecordOperationError("AI", "AI_TIMEOUT")

	assert.GreaterOrEqual(t, collector.CountMetricsByName(OperationsTotal), 1)
	assert.GreaterOrEqual(t, collector.CountMetricsByName(OperationDuration), 1)
	assert.GreaterOrEqual(t, collector.CountMetricsByName(OperationsErrorsTotal), 1)
}

func TestRecordRateLimitMetrics(t *testing.T) {
	collector := setupTelemetry(t)

	RecordRateLimitDecision(true)
	RecordRateLimitDecision(false)
	RecordRateLimitStoreError()
	RecordRateLimitSweep(3, 7)

	assert.GreaterOrEqual(t, collector.CountMetricsByName(RateLimitDecisionsTotal), 2)
	assert.GreaterOrEqual(t, collector.CountMetricsByName(RateLimitStoreErrors), 1)
	assert.GreaterOrEqual(t, collector.CountMetricsByName(RateLimitSweptTotal), 1)
	assert.GreaterOrEqual(t, collector.CountMetricsByName(RateLimitTrackedClients), 1)
}

func TestRecordErrors(t *testing.T) {
	collector := setupTelemetry(t)

	RecordHTTPError("/bfhl", "RATE_LIMITED", 429)
	RecordHTTPError("/bfhl", "INTERNAL_ERROR", 500)
	RecordPanic("/bfhl")

	assert.GreaterOrEqual(t, collector.CountMetricsByName(HTTPErrorsTotal), 2)
	assert.GreaterOrEqual(t, collector.CountMetricsByName(PanicsTotal), 1)
}

func TestMetricsNoopWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	defer func() { observability.TelemetrySystem = original }()

	assert.NotPanics(t, func() {
		RecordOperation("prime", false, time.Millisecond)
		RecordAICall("gemini", "timeout", time.Second)
		RecordHealthCheck("identity", true, time.Millisecond)
		SetServerStartTime(time.Now().Unix())
	})
}
