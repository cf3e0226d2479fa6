package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfhl/bfhl/internal/ailink"
	"github.com/bfhl/bfhl/internal/server/envelope"
	"github.com/bfhl/bfhl/internal/server/middleware"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeValidationFailed:   http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
		CodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
		CodeRequestTimeout:     http.StatusServiceUnavailable,
		CodeExternalService:    http.StatusBadGateway,
		CodeAIAuth:             http.StatusBadGateway,
		CodeAITimeout:          http.StatusBadGateway,
		CodeAIEmpty:            http.StatusBadGateway,
		CodeConfigInvalid:      http.StatusInternalServerError,
		CodeInternal:           http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatusFromCode(code), code)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromEnvelope(nil))
}

func TestFromAIError(t *testing.T) {
	env := FromAIError(&ailink.Error{Kind: ailink.KindNotConfigured, Message: "AI service not configured"})
	require.NotNil(t, env)
	assert.Equal(t, CodeServiceUnavailable, env.Code)
	assert.Equal(t, "AI service not configured", env.Message)

	env = FromAIError(&ailink.Error{Kind: ailink.KindRateLimited, Message: "AI provider rate limit exceeded", Details: "429 quota"})
	require.NotNil(t, env)
	assert.Equal(t, CodeAIRateLimited, env.Code)
	assert.Equal(t, "rate_limited", env.Context["ai_error_kind"])
	assert.Equal(t, "429 quota", env.Context["upstream_details"])

	env = FromAIError(&ailink.Error{Kind: ailink.KindUnknown, Message: "AI provider error"})
	require.NotNil(t, env)
	assert.Equal(t, CodeExternalService, env.Code)

	assert.Nil(t, FromAIError(stderrors.New("plain")))
}

func TestEnsureEnvelope(t *testing.T) {
	env := EnsureEnvelope(nil)
	assert.Equal(t, CodeInternal, env.Code)
	assert.Equal(t, envelope.GenericErrorMessage, env.Message)

	existing := NewValidationError("bad input")
	assert.Same(t, existing, EnsureEnvelope(existing))

	env = EnsureEnvelope(stderrors.New("disk on fire"))
	assert.Equal(t, CodeInternal, env.Code)
	assert.Equal(t, "disk on fire", env.Message)

	env = EnsureEnvelope(&ailink.Error{Kind: ailink.KindTimeout, Message: "AI provider timed out"})
	assert.Equal(t, CodeAITimeout, env.Code)
}

func TestWrapKeepsCorrelationAndCause(t *testing.T) {
	ctx := middleware.WithRequestID(context.Background(), "req-123")
	env := WrapConfigInvalid(ctx, stderrors.New("yaml: line 3"), "config reload failed")

	assert.Equal(t, CodeConfigInvalid, env.Code)
	assert.Equal(t, "req-123", env.CorrelationID)
	assert.Equal(t, "yaml: line 3", env.Context["wrapped_error"])
}

func TestEnsureCorrelationIDFallback(t *testing.T) {
	env := EnsureCorrelationID(NewNotFoundError("Route not found"), context.Background())
	assert.NotEmpty(t, env.CorrelationID)

	assert.Nil(t, EnsureCorrelationID(nil, context.Background()))
}

func TestRespondWithEnvelopeWritesFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/bfhl", nil)
	req = req.WithContext(envelope.WithOfficialEmail(req.Context(), "someone@example.edu"))
	rec := httptest.NewRecorder()

	RespondWithEnvelope(rec, req, NewRateLimitedError("Too many requests, please try again later."))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["is_success"])
	assert.Equal(t, "someone@example.edu", body["official_email"])
	assert.Equal(t, "Too many requests, please try again later.", body["error"])
	assert.NotContains(t, body, "code")
}

func TestRespondWithErrorPlainError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/bfhl", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, stderrors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["is_success"])
	assert.Equal(t, "disk on fire", body["error"])
}

func TestConstructorsSetCodes(t *testing.T) {
	cases := []struct {
		env  *gferrors.ErrorEnvelope
		code string
	}{
		{NewValidationError("x"), CodeValidationFailed},
		{NewNotFoundError("x"), CodeNotFound},
		{NewMethodNotAllowedError("x"), CodeMethodNotAllowed},
		{NewPayloadTooLargeError("x"), CodePayloadTooLarge},
		{NewRateLimitedError("x"), CodeRateLimited},
		{NewInternalError("x"), CodeInternal},
		{NewConfigInvalidError("x"), CodeConfigInvalid},
		{NewServiceUnavailableError("x"), CodeServiceUnavailable},
		{NewRequestTimeoutError("x"), CodeRequestTimeout},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.env.Code)
	}
}
