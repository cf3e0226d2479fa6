// Package envelope defines the uniform JSON body returned by every route.
package envelope

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// GenericErrorMessage is used when an error carries no message of its own.
const GenericErrorMessage = "Internal server error"

// Envelope is the wire shape of every response.
type Envelope struct {
	IsSuccess     bool    `json:"is_success"`
	OfficialEmail *string `json:"official_email"`
	Data          any     `json:"data,omitempty"`
	Error         string  `json:"error,omitempty"`
}

type officialEmailContextKey struct{}

// WithOfficialEmail stores the service identity on ctx.
func WithOfficialEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, officialEmailContextKey{}, email)
}

// OfficialEmail returns the service identity stored on ctx, if any.
func OfficialEmail(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	email, ok := ctx.Value(officialEmailContextKey{}).(string)
	email = strings.TrimSpace(email)
	return email, ok && email != ""
}

func emailPtr(ctx context.Context) *string {
	if email, ok := OfficialEmail(ctx); ok {
		return &email
	}
	return nil
}

// Success builds a successful envelope. data may be nil for bodies such as
// /health that carry only the identity.
func Success(ctx context.Context, data any) Envelope {
	return Envelope{IsSuccess: true, OfficialEmail: emailPtr(ctx), Data: data}
}

// Failure builds an error envelope, falling back to GenericErrorMessage.
func Failure(ctx context.Context, message string) Envelope {
	if strings.TrimSpace(message) == "" {
		message = GenericErrorMessage
	}
	return Envelope{IsSuccess: false, OfficialEmail: emailPtr(ctx), Error: message}
}

// Write encodes env with the given status.
func Write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
