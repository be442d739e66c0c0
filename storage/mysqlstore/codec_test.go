package mysqlstore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/storage"
	"emberql/value"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encodeValue(&buf, v))
	got, rest, err := decodeValue(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, rest)
	return got
}

func TestEncodeValueKeyableRoundTrip(t *testing.T) {
	for _, v := range []value.Value{
		value.Null(),
		value.Bool(true),
		value.I64(-42),
		value.Text("hello"),
	} {
		got := roundTrip(t, v)
		assert.Equal(t, value.Equal, value.Compare(v, got))
	}
}

func TestEncodeValueFloats(t *testing.T) {
	got := roundTrip(t, value.F64(3.14159))
	assert.Equal(t, 3.14159, got.Float64Of())

	got32 := roundTrip(t, value.F32(2.5))
	assert.Equal(t, float32(2.5), got32.Float32Of())
}

func TestEncodeValueMap(t *testing.T) {
	m := value.NewMap()
	m.Set("a", value.I64(1))
	m.Set("b", value.Text("x"))
	v := value.MapVal(m)

	got := roundTrip(t, v)
	require.Equal(t, value.KindMap, got.Kind())
	gm := got.MapOf()
	a, ok := gm.Get("a")
	require.True(t, ok)
	assert.Equal(t, value.Equal, value.Compare(value.I64(1), a))
	b, ok := gm.Get("b")
	require.True(t, ok)
	assert.Equal(t, value.Equal, value.Compare(value.Text("x"), b))
}

func TestEncodeValueList(t *testing.T) {
	v := value.List([]value.Value{value.I64(1), value.I64(2), value.I64(3)})
	got := roundTrip(t, v)
	require.Equal(t, value.KindList, got.Kind())
	require.Len(t, got.ListOf(), 3)
	for i, e := range got.ListOf() {
		assert.Equal(t, value.Equal, value.Compare(value.I64(int64(i+1)), e))
	}
}

func TestEncodeValuePoint(t *testing.T) {
	p := value.Point{X: 1.5, Y: -2.25}
	got := roundTrip(t, value.PointVal(p))
	assert.Equal(t, p, got.PointOf())
}

func TestEncodeRowStructured(t *testing.T) {
	row := storage.Row{Values: []value.Value{value.I64(7), value.Text("row")}}
	b, err := encodeRow(row)
	require.NoError(t, err)

	got, err := decodeRow(b)
	require.NoError(t, err)
	require.False(t, got.Schemaless())
	require.Len(t, got.Values, 2)
	assert.Equal(t, value.Equal, value.Compare(value.I64(7), got.Values[0]))
	assert.Equal(t, value.Equal, value.Compare(value.Text("row"), got.Values[1]))
}

func TestEncodeRowSchemaless(t *testing.T) {
	doc := value.NewMap()
	doc.Set("name", value.Text("ada"))
	row := storage.Row{Doc: doc}

	b, err := encodeRow(row)
	require.NoError(t, err)

	got, err := decodeRow(b)
	require.NoError(t, err)
	require.True(t, got.Schemaless())
	name, ok := got.Doc.Get("name")
	require.True(t, ok)
	assert.Equal(t, value.Equal, value.Compare(value.Text("ada"), name))
}

func TestDecodeValueTruncated(t *testing.T) {
	_, _, err := decodeValue([]byte{byte(tagF64), 0x01})
	assert.Error(t, err)
}
