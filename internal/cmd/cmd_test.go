package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfhl/bfhl/internal/ailink"
	"github.com/bfhl/bfhl/internal/config"
	"github.com/bfhl/bfhl/internal/dispatch"
	errwrap "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/output"
)

type answerStub struct {
	answer string
	err    error
}

func (s answerStub) Answer(context.Context, string) (string, error) {
	return s.answer, s.err
}

func decodeResult(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestRunOperationFibonacci(t *testing.T) {
	var buf bytes.Buffer
	err := runOperation(context.Background(), &buf, dispatch.New(nil), dispatch.KindFibonacci, argValue("7"), output.FormatJSON)
	require.NoError(t, err)

	decoded := decodeResult(t, buf.Bytes())
	assert.Equal(t, "fibonacci", decoded["operation"])
	assert.Equal(t, []any{0.0, 1.0, 1.0, 2.0, 3.0, 5.0, 8.0}, decoded["data"])
}

func TestRunOperationArrays(t *testing.T) {
	cases := []struct {
		kind dispatch.Kind
		args []string
		want any
	}{
		{dispatch.KindPrime, []string{"2", "4", "7", "9", "11"}, []any{2.0, 7.0, 11.0}},
		{dispatch.KindLCM, []string{"12", "18", "24"}, 72.0},
		{dispatch.KindHCF, []string{"24", "36", "60"}, 12.0},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			var buf bytes.Buffer
			err := runOperation(context.Background(), &buf, dispatch.New(nil), tc.kind, argValues(tc.args), output.FormatJSON)
			require.NoError(t, err)
			assert.Equal(t, tc.want, decodeResult(t, buf.Bytes())["data"])
		})
	}
}

func TestRunOperationValidationFailure(t *testing.T) {
	var buf bytes.Buffer
	err := runOperation(context.Background(), &buf, dispatch.New(nil), dispatch.KindPrime, argValues([]string{"2", "x"}), output.FormatJSON)
	require.Error(t, err)

	decoded := decodeResult(t, buf.Bytes())
	assert.Equal(t, "prime must contain only integers", decoded["error"])
	assert.NotContains(t, decoded, "data")
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(err))
}

func TestRunOperationFibonacciRange(t *testing.T) {
	var buf bytes.Buffer
	err := runOperation(context.Background(), &buf, dispatch.New(nil), dispatch.KindFibonacci, argValue("1001"), output.FormatJSON)
	require.Error(t, err)
	assert.Equal(t, dispatch.MsgFibonacciRange, decodeResult(t, buf.Bytes())["error"])
}

func TestRunOperationAI(t *testing.T) {
	var buf bytes.Buffer
	d := dispatch.New(answerStub{answer: "Paris"})
	err := runOperation(context.Background(), &buf, d, dispatch.KindAI, "capital of France?", output.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "Paris", decodeResult(t, buf.Bytes())["data"])
}

func TestRunOperationAIUnconfigured(t *testing.T) {
	var buf bytes.Buffer
	d := dispatch.New(&ailink.Service{})
	err := runOperation(context.Background(), &buf, d, dispatch.KindAI, "capital of France?", output.FormatTable)
	require.Error(t, err)
	assert.Equal(t, ailink.KindNotConfigured, ailink.KindOf(err))
	assert.Contains(t, buf.String(), "AI service not configured")
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(err))
}

func TestArgValue(t *testing.T) {
	assert.Equal(t, json.Number("42"), argValue("42"))
	assert.Equal(t, json.Number("-3"), argValue("-3"))
	assert.Equal(t, json.Number("5.0"), argValue("5.0"))
	assert.Equal(t, "abc", argValue("abc"))
	assert.Equal(t, "NaN", argValue("NaN"))
	assert.Equal(t, "0x10", argValue("0x10"))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(fmt.Errorf("boom")))
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(errwrap.NewConfigInvalidError("bad")))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(&ailink.Error{Kind: ailink.KindTimeout, Message: "timed out"}))
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(errwrap.NewInternalError("x")))
}

func TestDoctorChecks(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	checks := doctorChecks(nil)
	last := checks[len(checks)-1]
	assert.Equal(t, "Configuration", last.name)
	assert.False(t, last.ok)

	cfg := &config.Config{}
	cfg.Identity.OfficialEmail = "student@example.edu"
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 120

	byName := map[string]diagnostic{}
	for _, check := range doctorChecks(cfg) {
		byName[check.name] = check
	}
	assert.True(t, byName["Official email"].ok)
	assert.True(t, byName["AI provider"].ok)
	assert.True(t, byName["AI provider"].warn)
	assert.True(t, byName["Config file"].warn)

	cfg.Identity.OfficialEmail = ""
	byName = map[string]diagnostic{}
	for _, check := range doctorChecks(cfg) {
		byName[check.name] = check
	}
	assert.False(t, byName["Official email"].ok)
}

func TestWriteDefaultConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bfhl", "config.yaml")
	require.NoError(t, writeDefaultConfig(path, false))
	require.Error(t, writeDefaultConfig(path, false))
	require.NoError(t, writeDefaultConfig(path, true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	for _, name := range []string{"OFFICIAL_EMAIL", "GEMINI_API_KEY", "PORT", "BFHL_SERVER_PORT"} {
		t.Setenv(name, "")
	}
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 120, cfg.RateLimit.Requests)
	assert.Equal(t, "gemini", cfg.AI.Provider)
}

func TestNewLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Nil(t, newLimiter(ctx, config.RateLimitConfig{Enabled: false}))

	limiter := newLimiter(ctx, config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute})
	require.NotNil(t, limiter)
	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
	decision, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}
