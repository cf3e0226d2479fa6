package kernel

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCD(t *testing.T) {
	assert.Equal(t, int64(6), GCD(12, 18))
	assert.Equal(t, int64(6), GCD(-12, 18))
	assert.Equal(t, int64(7), GCD(7, 0))
	assert.Equal(t, int64(7), GCD(-7, 0))
	assert.Equal(t, int64(0), GCD(0, 0))
	assert.Equal(t, int64(1), GCD(17, 31))
}

func TestLCMZero(t *testing.T) {
	for _, k := range []int64{0, 1, -5, 42, MaxSafeInteger} {
		assert.Equal(t, 0, LCM(big.NewInt(0), big.NewInt(k)).Sign(), "LCM(0, %d)", k)
		assert.Equal(t, 0, LCM(big.NewInt(k), big.NewInt(0)).Sign(), "LCM(%d, 0)", k)
	}
}

func TestLCMPair(t *testing.T) {
	assert.Equal(t, int64(36), LCM(big.NewInt(12), big.NewInt(18)).Int64())
	assert.Equal(t, int64(36), LCM(big.NewInt(-12), big.NewInt(18)).Int64())
}

func TestArrayReductions(t *testing.T) {
	assert.Equal(t, int64(4), GCDArray([]int64{8, 12, 20}))
	assert.Equal(t, int64(120), LCMArray([]int64{8, 12, 20}).Int64())
	assert.Equal(t, int64(5), GCDArray([]int64{-5}))
	assert.Equal(t, int64(5), LCMArray([]int64{-5}).Int64())
	assert.Equal(t, int64(0), LCMArray([]int64{3, 0, 4}).Int64())
}

func TestLCMArrayDoesNotOverflow(t *testing.T) {
	got := LCMArray([]int64{MaxSafeInteger, MaxSafeInteger - 1})
	want := new(big.Int).Mul(big.NewInt(MaxSafeInteger), big.NewInt(MaxSafeInteger-1))
	assert.Equal(t, 0, want.Cmp(got))
}

func TestReductionsArePermutationInvariant(t *testing.T) {
	inputs := [][]int64{
		{12, 18, 30},
		{18, 30, 12},
		{30, 12, 18},
		{30, 18, 12},
	}

	gcd := GCDArray(inputs[0])
	lcm := LCMArray(inputs[0])
	for _, in := range inputs[1:] {
		assert.Equal(t, gcd, GCDArray(in))
		assert.Equal(t, 0, lcm.Cmp(LCMArray(in)))
	}

	for _, v := range inputs[0] {
		require.Zero(t, v%gcd, "gcd must divide %d", v)
		rem := new(big.Int).Rem(lcm, big.NewInt(v))
		require.Zero(t, rem.Sign(), "lcm must be a multiple of %d", v)
	}
}
