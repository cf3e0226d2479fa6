package kernel

import "math/big"

// GCD computes the greatest common divisor with Euclid's algorithm on the
// absolute values of a and b. GCD(a, 0) is |a|.
//
// Inputs are expected within ±MaxSafeInteger so that |a| cannot overflow.
func GCD(a, b int64) int64 {
	a, b = abs(a), abs(b)
	if b == 0 {
		return a
	}
	return GCD(b, a%b)
}

// GCDArray folds GCD left to right across values. An empty slice yields 0.
func GCDArray(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	acc := abs(values[0])
	for _, v := range values[1:] {
		acc = GCD(acc, v)
	}
	return acc
}

// LCM returns 0 when either operand is 0, otherwise |a/GCD(a,b)*b|.
// Arithmetic is arbitrary precision because the product of two safe
// integers overflows int64.
func LCM(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return big.NewInt(0)
	}
	g := gcdBig(a, b)
	out := new(big.Int).Quo(a, g)
	out.Mul(out, b)
	return out.Abs(out)
}

// LCMArray folds LCM left to right across values. An empty slice yields 0.
func LCMArray(values []int64) *big.Int {
	if len(values) == 0 {
		return big.NewInt(0)
	}
	acc := new(big.Int).Abs(big.NewInt(values[0]))
	for _, v := range values[1:] {
		acc = LCM(acc, big.NewInt(v))
	}
	return acc
}

func gcdBig(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	if y.Sign() == 0 {
		return x
	}
	return gcdBig(y, new(big.Int).Rem(x, y))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
