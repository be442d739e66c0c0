package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareNullIsIncomparable(t *testing.T) {
	assert.Equal(t, Incomparable, Compare(Null(), I64(1)))
	assert.Equal(t, Incomparable, Compare(I64(1), Null()))
	assert.Equal(t, Incomparable, Compare(Null(), Null()))
}

func TestCompareCrossWidthIntegers(t *testing.T) {
	assert.Equal(t, Equal, Compare(I8(5), I64(5)))
	assert.Equal(t, Less, Compare(I32(2), I64(3)))
	assert.Equal(t, Greater, Compare(U64(10), U8(9)))
}

func TestKleeneLogic(t *testing.T) {
	tru, fals := truePtr(), falsePtr()
	assert.Equal(t, fals, And(nil, fals))
	assert.Nil(t, And(nil, tru))
	assert.Equal(t, tru, Or(nil, tru))
	assert.Nil(t, Or(nil, fals))
	assert.Nil(t, Not(nil))
}

func TestAddOverflow(t *testing.T) {
	_, err := Add(I8(120), I8(120))
	require.Error(t, err)
}

func TestAddPromotesToFloat(t *testing.T) {
	r, err := Add(I32(2), F64(1.5))
	require.NoError(t, err)
	assert.Equal(t, KindF64, r.Kind())
	assert.Equal(t, 3.5, r.Float64Of())
}

func TestFactorialBoundary(t *testing.T) {
	r, err := Factorial(I64(0))
	require.NoError(t, err)
	v, _ := r.Int128Of().Int64()
	assert.Equal(t, int64(1), v)

	_, err = Factorial(I64(-1))
	require.Error(t, err)

	_, err = Factorial(I64(34))
	require.Error(t, err)
}

func TestBitwiseNotPreservesWidth(t *testing.T) {
	r, err := BitwiseNot(I8(0))
	require.NoError(t, err)
	assert.Equal(t, KindI8, r.Kind())
	n, _ := r.Int128Of().Int64()
	assert.Equal(t, int64(-1), n)

	_, err = BitwiseNot(F64(1))
	require.Error(t, err)
}

func TestConcatStringifiesNumerics(t *testing.T) {
	r, err := Concat(Text("n="), I64(5))
	require.NoError(t, err)
	assert.Equal(t, "n=5", r.TextOf())

	r, err = Concat(Text("x"), Null())
	require.NoError(t, err)
	assert.True(t, r.IsNull())
}

func TestCastBoolLiterals(t *testing.T) {
	r, err := Cast(Text("TRUE"), KindBool)
	require.NoError(t, err)
	assert.True(t, r.Bool())

	r, err = Cast(Text("0"), KindBool)
	require.NoError(t, err)
	assert.False(t, r.Bool())

	_, err = Cast(Text("nope"), KindBool)
	require.Error(t, err)
}

func TestIntervalUnitMismatch(t *testing.T) {
	_, err := Add(IntervalVal(MonthInterval(1)), IntervalVal(MicroInterval(1)))
	require.Error(t, err)
}

func TestIntervalScaling(t *testing.T) {
	r, err := Mul(IntervalVal(MonthInterval(2)), I64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(6), r.IntervalOf().Count)
}
