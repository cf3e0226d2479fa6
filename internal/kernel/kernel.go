// Package kernel holds the pure numeric computations behind the /bfhl
// operations. Functions here never validate request shapes; callers are
// expected to pass integers already checked by the dispatcher.
package kernel

// MaxSafeInteger is the largest integer magnitude accepted as input. Values
// beyond it cannot round-trip through a JSON number without loss.
const MaxSafeInteger int64 = 1<<53 - 1

// MaxFibonacciTerms bounds the sequence length served over HTTP.
const MaxFibonacciTerms = 1000
