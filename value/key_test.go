package value

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		I32(-42),
		U64(9000),
		F64(3.5),
		Text("hello"),
		Bytes([]byte{1, 2, 3}),
		UUID(uuid.New()),
	}
	for _, v := range cases {
		k, err := NewKey(v)
		require.NoError(t, err)
		enc := k.Encode()
		dec, err := Decode(enc)
		require.NoError(t, err)
		if v.IsNull() {
			// Compare(Null, Null) is Incomparable, so Null is checked by kind.
			assert.True(t, dec.Value().IsNull(), "round trip mismatch for %v", v)
			continue
		}
		assert.Equal(t, Equal, Compare(k.Value(), dec.Value()), "round trip mismatch for %v", v)
	}

	// Floats are not valid keys.
	_, err := NewKey(F64(3.5))
	assert.Error(t, err)
}

func TestKeyByteOrderMatchesIntValueOrder(t *testing.T) {
	values := []Value{I32(-100), I32(-1), I32(0), I32(1), I32(100)}
	var encoded [][]byte
	for _, v := range values {
		k, err := NewKey(v)
		require.NoError(t, err)
		encoded = append(encoded, k.Encode())
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytesLess(encoded[i-1], encoded[i]), "expected %v < %v in byte order", encoded[i-1], encoded[i])
	}
}

func TestKeyByteOrderMatchesTextValueOrder(t *testing.T) {
	// "ab" < "b" in plain string order even though "ab" is longer; a
	// length-prefixed encoding would sort it after "b".
	values := []Value{Text(""), Text("a"), Text("ab"), Text("abc"), Text("b"), Text("ba")}
	var encoded [][]byte
	for _, v := range values {
		k, err := NewKey(v)
		require.NoError(t, err)
		encoded = append(encoded, k.Encode())
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytesLess(encoded[i-1], encoded[i]), "expected %v < %v in byte order", values[i-1], values[i])
	}
}

func TestKeyByteOrderMatchesBytesValueOrderWithEmbeddedNUL(t *testing.T) {
	values := []Value{
		Bytes([]byte{0x00}),
		Bytes([]byte{0x00, 0x01}),
		Bytes([]byte{0x01}),
		Bytes([]byte{0x01, 0x00}),
		Bytes([]byte{0x01, 0x00, 0x00}),
	}
	var encoded [][]byte
	for _, v := range values {
		k, err := NewKey(v)
		require.NoError(t, err)
		enc := k.Encode()
		encoded = append(encoded, enc)

		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, Equal, Compare(v, dec.Value()), "round trip mismatch for %v", v)
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytesLess(encoded[i-1], encoded[i]), "expected %v < %v in byte order", values[i-1], values[i])
	}
}

func TestCompositeKeyCompare(t *testing.T) {
	k1a, _ := NewKey(I64(1))
	k1b, _ := NewKey(Text("a"))
	k2a, _ := NewKey(I64(1))
	k2b, _ := NewKey(Text("b"))

	c1 := CompositeKey([]Key{k1a, k1b})
	c2 := CompositeKey([]Key{k2a, k2b})
	assert.Equal(t, Less, c1.Compare(c2))
}

func TestNoneKeySortsFirst(t *testing.T) {
	n := None()
	k, _ := NewKey(I64(0))
	assert.Equal(t, Less, n.Compare(k))
}

func bytesLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
