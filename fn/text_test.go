package fn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/value"
)

func TestConcatStopsAtFirstNull(t *testing.T) {
	v, err := concatFn([]value.Value{value.Text("a"), value.Null(), value.Text("b")})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestLeftRightClampToLength(t *testing.T) {
	v, err := leftFn([]value.Value{value.Text("hi"), value.I64(10)})
	require.NoError(t, err)
	assert.Equal(t, "hi", v.TextOf())

	v, err = rightFn([]value.Value{value.Text("hello"), value.I64(2)})
	require.NoError(t, err)
	assert.Equal(t, "lo", v.TextOf())
}

func TestLpadRpad(t *testing.T) {
	v, err := padFn(true)([]value.Value{value.Text("5"), value.I64(3), value.Text("0")})
	require.NoError(t, err)
	assert.Equal(t, "005", v.TextOf())

	v, err = padFn(false)([]value.Value{value.Text("5"), value.I64(3), value.Text("0")})
	require.NoError(t, err)
	assert.Equal(t, "500", v.TextOf())
}

func TestTrimVariants(t *testing.T) {
	v, _ := trimFn(true, true)([]value.Value{value.Text("  hi  ")})
	assert.Equal(t, "hi", v.TextOf())

	v, _ = trimFn(true, false)([]value.Value{value.Text("xxhixx"), value.Text("x")})
	assert.Equal(t, "hixx", v.TextOf())

	v, _ = trimFn(false, true)([]value.Value{value.Text("xxhixx"), value.Text("x")})
	assert.Equal(t, "xxhi", v.TextOf())
}

func TestReverse(t *testing.T) {
	v, _ := reverseFn([]value.Value{value.Text("abc")})
	assert.Equal(t, "cba", v.TextOf())
}

func TestSubstrNegativeStart(t *testing.T) {
	v, err := substrFn([]value.Value{value.Text("hello"), value.I64(-3)})
	require.NoError(t, err)
	assert.Equal(t, "llo", v.TextOf())

	v, err = substrFn([]value.Value{value.Text("hello"), value.I64(2), value.I64(2)})
	require.NoError(t, err)
	assert.Equal(t, "el", v.TextOf())
}

func TestPositionFindsSubstring(t *testing.T) {
	v, err := positionFn([]value.Value{value.Text("lo"), value.Text("hello")})
	require.NoError(t, err)
	n, ok := v.Int128Of().Int64()
	require.True(t, ok)
	assert.Equal(t, int64(4), n)
}

func TestLikeWildcards(t *testing.T) {
	v, err := Like(value.Text("hello"), value.Text("h%o"), false)
	require.NoError(t, err)
	assert.True(t, v.Bool())

	v, err = Like(value.Text("HELLO"), value.Text("h_llo"), true)
	require.NoError(t, err)
	assert.True(t, v.Bool())

	v, err = Like(value.Text("HELLO"), value.Text("h_llo"), false)
	require.NoError(t, err)
	assert.False(t, v.Bool())
}

func TestLikeNullPropagates(t *testing.T) {
	v, err := Like(value.Null(), value.Text("%"), false)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}
