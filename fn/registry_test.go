package fn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/value"
)

func TestRegistryCallUppercasesName(t *testing.T) {
	r := NewRegistry()
	v, err := r.Call("upper", []value.Value{value.Text("shout")})
	require.NoError(t, err)
	assert.Equal(t, "SHOUT", v.TextOf())
}

func TestRegistryRejectsWrongArity(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("UPPER", []value.Value{value.Text("a"), value.Text("b")})
	require.Error(t, err)
}

func TestRegistryDefaultNullPropagation(t *testing.T) {
	r := NewRegistry()
	v, err := r.Call("UPPER", []value.Value{value.Null()})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestRegistryNullTolerantFunctionSeesNulls(t *testing.T) {
	r := NewRegistry()
	v, err := r.Call("COALESCE", []value.Value{value.Null(), value.Text("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", v.TextOf())
}

func TestRegistryUnknownFunction(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("NOT_A_FUNCTION", nil)
	require.Error(t, err)
}
