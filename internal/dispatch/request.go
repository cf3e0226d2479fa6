// Package dispatch turns a /bfhl body into one of five typed requests and
// executes it against the numeric kernels or the AI proxy.
package dispatch

import "strings"

// Kind names a request variant. Its value is the JSON key that selects it.
type Kind string

const (
	KindFibonacci Kind = "fibonacci"
	KindPrime     Kind = "prime"
	KindLCM       Kind = "lcm"
	KindHCF       Kind = "hcf"
	KindAI        Kind = "AI"
)

// Kinds lists the accepted keys in the order they are reported to clients.
var Kinds = []Kind{KindFibonacci, KindPrime, KindLCM, KindHCF, KindAI}

// Request is a validated /bfhl operation.
type Request interface {
	Kind() Kind
}

// FibonacciRequest asks for the first N terms.
type FibonacciRequest struct {
	N int
}

// PrimeRequest asks for the prime members of Values.
type PrimeRequest struct {
	Values []int64
}

// HCFRequest asks for the greatest common divisor of Values.
type HCFRequest struct {
	Values []int64
}

// LCMRequest asks for the least common multiple of Values.
type LCMRequest struct {
	Values []int64
}

// AIRequest carries a trimmed, non-empty question.
type AIRequest struct {
	Question string
}

func (FibonacciRequest) Kind() Kind { return KindFibonacci }
func (PrimeRequest) Kind() Kind     { return KindPrime }
func (HCFRequest) Kind() Kind       { return KindHCF }
func (LCMRequest) Kind() Kind       { return KindLCM }
func (AIRequest) Kind() Kind        { return KindAI }

func allowedKeys() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
