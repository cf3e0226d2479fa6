package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/bfhl/bfhl/internal/kernel"
	"github.com/bfhl/bfhl/internal/metrics"
)

// MsgTimedOut is returned when numeric work outlives its request.
const MsgTimedOut = "Request took too long to process"

// TimeoutError reports numeric work abandoned because ctx ended.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return MsgTimedOut }

func (e *TimeoutError) Unwrap() error { return e.Err }

// Answerer resolves a free-form question to cleaned text.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Dispatcher executes parsed requests.
type Dispatcher struct {
	AI Answerer
}

// New returns a Dispatcher that sends AI requests to ai.
func New(ai Answerer) *Dispatcher {
	return &Dispatcher{AI: ai}
}

// Execute runs req and returns the value placed in the envelope's data field:
// []*big.Int for fibonacci, []int64 for prime, int64 for hcf, *big.Int for
// lcm and string for AI.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (any, error) {
	if req == nil {
		return nil, invalid(MsgExactlyOneKey)
	}

	start := time.Now()
	result, err := d.execute(ctx, req)
	metrics.RecordOperation(string(req.Kind()), err == nil, time.Since(start))
	return result, err
}

func (d *Dispatcher) execute(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case FibonacciRequest:
		return kernel.Fibonacci(r.N), nil
	case PrimeRequest:
		primes, err := kernel.FilterPrimes(ctx, r.Values)
		if err != nil {
			return nil, &TimeoutError{Err: err}
		}
		return primes, nil
	case HCFRequest:
		return kernel.GCDArray(r.Values), nil
	case LCMRequest:
		return kernel.LCMArray(r.Values), nil
	case AIRequest:
		if d == nil || d.AI == nil {
			return nil, fmt.Errorf("dispatch: no AI answerer configured")
		}
		return d.AI.Answer(ctx, r.Question)
	default:
		return nil, fmt.Errorf("dispatch: unsupported request kind %q", req.Kind())
	}
}

// Handle parses body and executes it.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (any, error) {
	req, err := Parse(body)
	if err != nil {
		return nil, err
	}
	return d.Execute(ctx, req)
}
