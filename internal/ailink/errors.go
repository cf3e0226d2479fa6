package ailink

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/bfhl/bfhl/internal/ailink/driver"
)

// Kind classifies a proxy failure.
type Kind string

const (
	KindNotConfigured Kind = "not_configured"
	KindAuth          Kind = "auth"
	KindRateLimited   Kind = "rate_limited"
	KindUnavailable   Kind = "unavailable"
	KindBadRequest    Kind = "bad_request"
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindEmpty         Kind = "empty_response"
	KindUnknown       Kind = "unknown"
)

// Error is returned by Service for every failed call.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "ai proxy error"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var aerr *Error
	if errors.As(err, &aerr) && aerr != nil {
		return aerr.Kind
	}
	return KindUnknown
}

var errNotConfigured = &Error{Kind: KindNotConfigured, Message: "AI service not configured"}

func emptyResponseError() *Error {
	return &Error{Kind: KindEmpty, Message: "AI service returned an empty response"}
}

// pacingError reports a call that could not get a pacer token before its
// deadline. It never reached the provider.
func pacingError(err error) *Error {
	return &Error{Kind: KindRateLimited, Message: "AI service is busy, please try again later", Details: err.Error(), Err: err}
}

func mapProviderError(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "AI service request timed out", Err: err}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		details := strings.TrimSpace(perr.Message)
		switch perr.Class() {
		case driver.ClassAuth:
			return &Error{Kind: KindAuth, Message: "AI service authentication failed", Details: details, Err: err}
		case driver.ClassRateLimited:
			return &Error{Kind: KindRateLimited, Message: "AI service rate limited the request", Details: details, Err: err}
		case driver.ClassServer:
			return &Error{Kind: KindUnavailable, Message: "AI service unavailable", Details: details, Err: err}
		case driver.ClassClient:
			return &Error{Kind: KindBadRequest, Message: "AI service rejected the request", Details: details, Err: err}
		default:
			return &Error{Kind: KindUnknown, Message: "AI service request failed", Details: details, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Message: "AI service request timed out", Details: err.Error(), Err: err}
		}
		return &Error{Kind: KindNetwork, Message: "AI service unreachable", Details: err.Error(), Err: err}
	}

	return &Error{Kind: KindUnknown, Message: "AI service request failed", Details: err.Error(), Err: err}
}
