package fn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/value"
)

func TestSignFn(t *testing.T) {
	v, err := signFn([]value.Value{value.F64(-4)})
	require.NoError(t, err)
	n, _ := v.Int128Of().Int64()
	assert.Equal(t, int64(-1), n)
}

func TestRoundFnWithDigits(t *testing.T) {
	v, err := roundFn([]value.Value{value.F64(3.14159), value.I64(2)})
	require.NoError(t, err)
	f, _ := v.AsFloat64()
	assert.InDelta(t, 3.14, f, 1e-9)
}

func TestDivFnRejectsZeroDivisor(t *testing.T) {
	_, err := divFn([]value.Value{value.I64(1), value.I64(0)})
	require.Error(t, err)
}

func TestGcdLcm(t *testing.T) {
	v, err := gcdFn([]value.Value{value.I64(12), value.I64(18)})
	require.NoError(t, err)
	n, _ := v.Int128Of().Int64()
	assert.Equal(t, int64(6), n)

	v, err = lcmFn([]value.Value{value.I64(4), value.I64(6)})
	require.NoError(t, err)
	n, _ = v.Int128Of().Int64()
	assert.Equal(t, int64(12), n)
}

func TestLcmWithZeroOperand(t *testing.T) {
	v, err := lcmFn([]value.Value{value.I64(0), value.I64(5)})
	require.NoError(t, err)
	n, _ := v.Int128Of().Int64()
	assert.Equal(t, int64(0), n)
}

func TestRandFnReproducibleWithSeed(t *testing.T) {
	a, err := randFn([]value.Value{value.I64(42)})
	require.NoError(t, err)
	b, err := randFn([]value.Value{value.I64(42)})
	require.NoError(t, err)
	fa, _ := a.AsFloat64()
	fb, _ := b.AsFloat64()
	assert.Equal(t, fa, fb)
}
