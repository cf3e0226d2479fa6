package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/ailink"
	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/server/envelope"
	"github.com/bfhl/bfhl/internal/server/middleware"
)

// Error codes. Codes never reach the wire; they drive status mapping, logs
// and metrics.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeRequestTimeout     = "REQUEST_TIMEOUT"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"

	CodeAIAuth        = "AI_AUTH_FAILED"
	CodeAIRateLimited = "AI_RATE_LIMITED"
	CodeAIUnavailable = "AI_UNAVAILABLE"
	CodeAIBadRequest  = "AI_BAD_REQUEST"
	CodeAINetwork     = "AI_NETWORK_ERROR"
	CodeAITimeout     = "AI_TIMEOUT"
	CodeAIEmpty       = "AI_EMPTY_RESPONSE"
)

// User Errors (400-level)
func NewValidationError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeValidationFailed, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

func NewPayloadTooLargeError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodePayloadTooLarge, message)
}

func NewRateLimitedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeRateLimited, message)
}

// Server Errors (500-level)
func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeConfigInvalid, message).WithSeverity(errors.SeverityHigh)
	return env
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeServiceUnavailable, message)
}

// NewRequestTimeoutError reports work cut off by the request deadline.
func NewRequestTimeoutError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeRequestTimeout, message).WithSeverity(errors.SeverityMedium)
	return env
}

// Wrap functions for existing errors
// These functions accept a context to extract correlation/trace IDs from the request context

func WrapValidationError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeValidationFailed, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInternal, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, err, message)
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(code, message)
	env = env.WithCorrelationID(extractCorrelationID(ctx))
	env = env.WithTraceID(extractTraceID(ctx))
	return withWrappedError(env, err)
}

// FromAIError converts an ailink failure into an envelope. Unconfigured
// providers map to 503 and every upstream failure to 502 with its own code.
func FromAIError(err error) *errors.ErrorEnvelope {
	var aerr *ailink.Error
	if !stderrors.As(err, &aerr) || aerr == nil {
		return nil
	}

	code := CodeExternalService
	switch aerr.Kind {
	case ailink.KindNotConfigured:
		code = CodeServiceUnavailable
	case ailink.KindAuth:
		code = CodeAIAuth
	case ailink.KindRateLimited:
		code = CodeAIRateLimited
	case ailink.KindUnavailable:
		code = CodeAIUnavailable
	case ailink.KindBadRequest:
		code = CodeAIBadRequest
	case ailink.KindNetwork:
		code = CodeAINetwork
	case ailink.KindTimeout:
		code = CodeAITimeout
	case ailink.KindEmpty:
		code = CodeAIEmpty
	}

	env := errors.NewErrorEnvelope(code, aerr.Message)
	ctxData := map[string]interface{}{"ai_error_kind": string(aerr.Kind)}
	if aerr.Details != "" {
		ctxData["upstream_details"] = aerr.Details
	}
	if updated, err := env.WithContext(ctxData); err == nil {
		env = updated
	}
	if aerr.Kind != ailink.KindNotConfigured {
		if updated, err := env.WithSeverity(errors.SeverityMedium); err == nil {
			env = updated
		}
	}
	return env
}

// Helper functions for ID generation

// extractCorrelationID gets correlation ID from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// extractTraceID gets trace ID from context; there is no tracing system, so
// the correlation ID doubles as the trace ID.
func extractTraceID(ctx context.Context) string {
	return extractCorrelationID(ctx)
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope. Plain
// errors keep their own message so callers see it on the wire.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, envelope.GenericErrorMessage)
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var existing *errors.ErrorEnvelope
	if stderrors.As(err, &existing) && existing != nil {
		return existing
	}

	if env := FromAIError(err); env != nil {
		return env
	}

	message := err.Error()
	if message == "" {
		message = envelope.GenericErrorMessage
	}
	env := errors.NewErrorEnvelope(CodeInternal, message)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(env *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if env == nil {
		return nil
	}

	if env.CorrelationID != "" {
		return env
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}

	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}

	return env.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(env *errors.ErrorEnvelope) int {
	if env == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(env.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeRequestTimeout:
		return http.StatusServiceUnavailable
	case CodeExternalService, CodeAIAuth, CodeAIRateLimited, CodeAIUnavailable,
		CodeAIBadRequest, CodeAINetwork, CodeAITimeout, CodeAIEmpty:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func withWrappedError(env *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if env == nil || err == nil {
		return env
	}

	updated, updateErr := env.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return env
	}
	return updated
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting
// metrics, and writes the uniform failure body.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, env *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	env = EnsureCorrelationID(env, ctx)

	statusCode := HTTPStatusFromEnvelope(env)

	logHTTPError(env, statusCode)
	emitErrorMetrics(r, env, statusCode)

	envelope.Write(w, statusCode, envelope.Failure(ctx, env.Message))
}

func logHTTPError(env *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || env == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", env.Code),
		zap.Int("http_status", statusCode),
	}

	if env.Severity != "" {
		fields = append(fields, zap.String("severity", string(env.Severity)))
	}

	for key, value := range env.Context {
		fields = append(fields, zap.Any(key, value))
	}

	if env.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", env.CorrelationID))
	}

	switch env.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(env.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(env.Message, fields...)
	default:
		observability.ServerLogger.Info(env.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, env *errors.ErrorEnvelope, statusCode int) {
	if env == nil {
		return
	}

	endpoint := "/unknown"
	if r != nil {
		endpoint = middleware.EndpointPattern(r)
	}
	metrics.RecordHTTPError(endpoint, env.Code, statusCode)
}
