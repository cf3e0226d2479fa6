package kernel

import "math/big"

// Fibonacci returns the first n terms of 0, 1, 1, 2, 3, ...
// Terms grow past int64 around n=93, so every term is a big.Int.
func Fibonacci(n int) []*big.Int {
	if n <= 0 {
		return []*big.Int{}
	}

	seq := make([]*big.Int, 0, n)
	seq = append(seq, big.NewInt(0))
	if n == 1 {
		return seq
	}
	seq = append(seq, big.NewInt(1))

	for i := 2; i < n; i++ {
		next := new(big.Int).Add(seq[i-1], seq[i-2])
		seq = append(seq, next)
	}
	return seq
}
