package kernel

import "context"

// IsPrime reports whether x is prime using trial division by odd integers
// up to floor(sqrt(x)).
func IsPrime(x int64) bool {
	if x <= 1 {
		return false
	}
	if x <= 3 {
		return true
	}
	if x%2 == 0 {
		return false
	}
	for i := int64(3); i <= x/i; i += 2 {
		if x%i == 0 {
			return false
		}
	}
	return true
}

// FilterPrimes returns the prime values of input in their original order.
// A single test near MaxSafeInteger costs a few hundred milliseconds, so ctx
// is checked before each value and its error returned once it is done.
func FilterPrimes(ctx context.Context, values []int64) ([]int64, error) {
	primes := make([]int64, 0, len(values))
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsPrime(v) {
			primes = append(primes, v)
		}
	}
	return primes, nil
}
