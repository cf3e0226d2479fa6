package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bfhl/bfhl/internal/kernel"
)

// Validation messages returned to clients.
const (
	MsgInvalidJSON    = "Invalid JSON body"
	MsgNotObject      = "Request body must be a JSON object"
	MsgExactlyOneKey  = "Request must contain exactly one top-level key"
	MsgFibonacciRange = "fibonacci must be an integer between 1 and 1000"
	MsgAIQuestion     = "AI must be a non-empty string"
)

// ValidationError reports a body that cannot be dispatched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Parse validates body and returns the request it selects.
func Parse(body []byte) (Request, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, invalid(MsgInvalidJSON)
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, invalid(MsgInvalidJSON)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalid(MsgInvalidJSON)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid(MsgNotObject)
	}
	if len(obj) != 1 {
		return nil, invalid(MsgExactlyOneKey)
	}

	for key, value := range obj {
		return parseVariant(Kind(key), value)
	}
	return nil, invalid(MsgExactlyOneKey)
}

func parseVariant(kind Kind, value any) (Request, error) {
	switch kind {
	case KindFibonacci:
		n, ok := asInteger(value)
		if !ok || n < 1 || n > kernel.MaxFibonacciTerms {
			return nil, invalid(MsgFibonacciRange)
		}
		return FibonacciRequest{N: int(n)}, nil
	case KindPrime:
		values, err := integerArray(kind, value)
		if err != nil {
			return nil, err
		}
		return PrimeRequest{Values: values}, nil
	case KindHCF:
		values, err := integerArray(kind, value)
		if err != nil {
			return nil, err
		}
		return HCFRequest{Values: values}, nil
	case KindLCM:
		values, err := integerArray(kind, value)
		if err != nil {
			return nil, err
		}
		return LCMRequest{Values: values}, nil
	case KindAI:
		question, ok := value.(string)
		question = strings.TrimSpace(question)
		if !ok || question == "" {
			return nil, invalid(MsgAIQuestion)
		}
		return AIRequest{Question: question}, nil
	default:
		return nil, invalid("Invalid key. Allowed keys: %s", allowedKeys())
	}
}

func integerArray(kind Kind, value any) ([]int64, error) {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil, invalid("%s must be a non-empty array", kind)
	}

	values := make([]int64, 0, len(items))
	for _, item := range items {
		n, ok := asInteger(item)
		if !ok {
			return nil, invalid("%s must contain only integers", kind)
		}
		values = append(values, n)
	}
	return values, nil
}

// asInteger accepts JSON numbers with no fractional part (5 and 5.0) whose
// magnitude is at most kernel.MaxSafeInteger.
func asInteger(value any) (int64, bool) {
	num, ok := value.(json.Number)
	if !ok {
		return 0, false
	}

	if n, err := strconv.ParseInt(string(num), 10, 64); err == nil {
		return n, inSafeRange(n)
	}

	f, err := num.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if math.Abs(f) > float64(kernel.MaxSafeInteger) {
		return 0, false
	}
	return int64(f), true
}

func inSafeRange(n int64) bool {
	return n >= -kernel.MaxSafeInteger && n <= kernel.MaxSafeInteger
}
