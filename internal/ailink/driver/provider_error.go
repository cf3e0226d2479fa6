package driver

import (
	"fmt"
	"net/http"
)

// StatusClass buckets a provider's HTTP status into the failures callers
// handle differently.
type StatusClass string

const (
	ClassAuth        StatusClass = "auth"
	ClassRateLimited StatusClass = "rate_limited"
	ClassServer      StatusClass = "server"
	ClassClient      StatusClass = "client"
	ClassOther       StatusClass = "other"
)

// ProviderError is a non-2xx answer from a provider API. Message is the
// provider's own text and must never carry credentials.
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
}

// Class reports which bucket the status code falls in.
func (e *ProviderError) Class() StatusClass {
	if e == nil {
		return ClassOther
	}
	switch code := e.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ClassAuth
	case code == http.StatusTooManyRequests:
		return ClassRateLimited
	case code >= 500 && code <= 599:
		return ClassServer
	case code >= 400 && code <= 499:
		return ClassClient
	default:
		return ClassOther
	}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d %s: %s", e.Provider, e.StatusCode, e.Status, e.Message)
}
