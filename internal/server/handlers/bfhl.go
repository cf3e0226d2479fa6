package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/bfhl/bfhl/internal/dispatch"
	apperrors "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/server/envelope"
)

// DefaultMaxBodyBytes caps POST /bfhl bodies.
const DefaultMaxBodyBytes int64 = 10 * 1024

// DefaultTimeout bounds one POST /bfhl execution. It stays below the
// server's default write timeout so the error envelope can still be sent.
const DefaultTimeout = 30 * time.Second

// Client-facing messages shared by handlers.
const (
	MsgServerNotConfigured = "Server not configured"
	MsgBodyTooLarge        = "Request body too large"
)

// BFHLHandler serves POST /bfhl.
type BFHLHandler struct {
	Dispatcher   *dispatch.Dispatcher
	MaxBodyBytes int64
	Timeout      time.Duration
}

// NewBFHLHandler returns a handler executing requests through d. Zero
// limits fall back to DefaultMaxBodyBytes and DefaultTimeout.
func NewBFHLHandler(d *dispatch.Dispatcher, maxBodyBytes int64, timeout time.Duration) *BFHLHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BFHLHandler{Dispatcher: d, MaxBodyBytes: maxBodyBytes, Timeout: timeout}
}

func (h *BFHLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	if _, ok := envelope.OfficialEmail(ctx); !ok {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewConfigInvalidError(MsgServerNotConfigured))
		return
	}

	if r.ContentLength > h.MaxBodyBytes {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewPayloadTooLargeError(MsgBodyTooLarge))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			apperrors.RespondWithEnvelope(w, r, apperrors.NewPayloadTooLargeError(MsgBodyTooLarge))
			return
		}
		apperrors.RespondWithEnvelope(w, r, apperrors.WrapValidationError(ctx, err, dispatch.MsgInvalidJSON))
		return
	}

	req, err := dispatch.Parse(body)
	if err != nil {
		apperrors.RespondWithEnvelope(w, r, toEnvelope(err))
		return
	}

	data, err := h.Dispatcher.Execute(ctx, req)
	if err != nil {
		env := toEnvelope(err)
		metrics.RecordOperationError(string(req.Kind()), env.Code)
		apperrors.RespondWithEnvelope(w, r, env)
		return
	}

	envelope.Write(w, http.StatusOK, envelope.Success(ctx, data))
}

func toEnvelope(err error) *errors.ErrorEnvelope {
	var verr *dispatch.ValidationError
	if stderrors.As(err, &verr) {
		return apperrors.NewValidationError(verr.Message)
	}
	var terr *dispatch.TimeoutError
	if stderrors.As(err, &terr) {
		return apperrors.NewRequestTimeoutError(terr.Error())
	}
	return apperrors.EnsureEnvelope(err)
}
