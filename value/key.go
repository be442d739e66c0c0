package value

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Key is the subset of Value suitable as a row identifier: every
// scalar Kind except floats, plus a composite List-of-Key for composite
// primary keys, and a None sentinel for rowid-only tables. Map and Point
// are never keys.
type Key struct {
	v      Value
	isNone bool
	list   []Key
	isList bool
}

// None is the sentinel Key used for rowid-only tables that have no declared
// primary key.
func None() Key { return Key{isNone: true} }

// NewKey validates that v's Kind is permitted as a Key and wraps it.
func NewKey(v Value) (Key, error) {
	switch v.Kind() {
	case KindF32, KindF64:
		return Key{}, ErrFloatCannotBeGroupedBy()
	case KindMap, KindPoint:
		return Key{}, fmt.Errorf("value: %s cannot be used as a key", v.Kind())
	case KindList:
		parts := make([]Key, 0, len(v.ListOf()))
		for _, e := range v.ListOf() {
			k, err := NewKey(e)
			if err != nil {
				return Key{}, err
			}
			parts = append(parts, k)
		}
		return CompositeKey(parts), nil
	default:
		return Key{v: v}, nil
	}
}

// CompositeKey builds a Key out of an ordered list of component Keys, for
// composite primary keys.
func CompositeKey(parts []Key) Key { return Key{isList: true, list: parts} }

func (k Key) IsNone() bool       { return k.isNone }
func (k Key) IsComposite() bool  { return k.isList }
func (k Key) Value() Value       { return k.v }
func (k Key) Parts() []Key       { return k.list }

// Compare gives Keys the same total order as Compare on the underlying
// Values; composite keys compare lexicographically part by part.
func (a Key) Compare(b Key) Ordering {
	if a.isNone || b.isNone {
		switch {
		case a.isNone && b.isNone:
			return Equal
		case a.isNone:
			return Less
		default:
			return Greater
		}
	}
	if a.isList || b.isList {
		pa, pb := a.asParts(), b.asParts()
		n := len(pa)
		if len(pb) < n {
			n = len(pb)
		}
		for i := 0; i < n; i++ {
			if o := pa[i].Compare(pb[i]); o != Equal {
				return o
			}
		}
		return intOrdering(len(pa) - len(pb))
	}
	return Compare(a.v, b.v)
}

func (k Key) asParts() []Key {
	if k.isList {
		return k.list
	}
	return []Key{k}
}

// typeTag fixes the relative ordering across distinct Kinds when encoded,
// so bytes.Compare on the encoded form matches Compare on the decoded Keys.
type typeTag byte

const (
	tagNone typeTag = iota
	tagBool
	tagInt
	tagUint
	tagDecimal
	tagText
	tagBytes
	tagIP
	tagDate
	tagTimestamp
	tagTime
	tagInterval
	tagUUID
	tagList
)

const signBit64 = uint64(1) << 63

// shift127 recenters the signed 128-bit range [-2^127, 2^127) onto the
// unsigned range [0, 2^128) so plain big-endian byte comparison of the
// shifted magnitude matches signed numeric order.
var shift127 = new(big.Int).Lsh(big.NewInt(1), 127)

// Encode renders the Key as a big-endian byte string. Within one Kind
// family the lexicographic byte order matches the Key's value order,
// except for Decimal, which is written as its length-prefixed string
// form. Each family has its own leading tag, so keys of different
// families (a signed and an unsigned integer, for example) sort by tag,
// not by value. Decode inverts it up to width: integers come back as
// INT128 or UINT128, a Null key comes back as None, and an IPv4-mapped
// IPv6 address comes back as IPv4.
func (k Key) Encode() []byte {
	var buf bytes.Buffer
	k.encodeInto(&buf)
	return buf.Bytes()
}

func (k Key) encodeInto(buf *bytes.Buffer) {
	if k.isNone {
		buf.WriteByte(byte(tagNone))
		return
	}
	if k.isList {
		buf.WriteByte(byte(tagList))
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k.list)))
		buf.Write(lenBuf[:])
		for _, p := range k.list {
			p.encodeInto(buf)
		}
		return
	}
	v := k.v
	switch v.Kind() {
	case KindNull:
		buf.WriteByte(byte(tagNone))
	case KindBool:
		buf.WriteByte(byte(tagBool))
		if v.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		buf.WriteByte(byte(tagInt))
		writeFixed16(buf, new(big.Int).Add(v.Int128Of().Big(), shift127))
	case KindU8, KindU16, KindU32, KindU64, KindU128:
		buf.WriteByte(byte(tagUint))
		writeFixed16(buf, v.Uint128Of().Big())
	case KindDecimal:
		buf.WriteByte(byte(tagDecimal))
		writeLenPrefixed(buf, []byte(v.DecimalOf().String()))
	case KindText:
		buf.WriteByte(byte(tagText))
		writeEscaped(buf, []byte(v.TextOf()))
	case KindBytes:
		buf.WriteByte(byte(tagBytes))
		writeEscaped(buf, v.BytesOf())
	case KindIP:
		buf.WriteByte(byte(tagIP))
		b := v.IPOf().As16()
		buf.Write(b[:])
	case KindDate:
		buf.WriteByte(byte(tagDate))
		d := v.DateOf()
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(int32(d.Year))^0x80000000)
		buf.Write(tmp[:])
		buf.WriteByte(byte(d.Month))
		buf.WriteByte(byte(d.Day))
	case KindTimestamp:
		buf.WriteByte(byte(tagTimestamp))
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(v.TimestampOf().T.UnixNano())^signBit64)
		buf.Write(tmp[:])
	case KindTime:
		buf.WriteByte(byte(tagTime))
		t := v.TimeOf()
		micros := uint64((t.Hour*60+t.Min)*60+t.Sec)*1_000_000 + uint64(t.Micro)
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], micros)
		buf.Write(tmp[:])
	case KindInterval:
		buf.WriteByte(byte(tagInterval))
		iv := v.IntervalOf()
		buf.WriteByte(byte(iv.Unit))
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(iv.Count)^signBit64)
		buf.Write(tmp[:])
	case KindUUID:
		buf.WriteByte(byte(tagUUID))
		id := v.UUIDOf()
		b, _ := id.MarshalBinary()
		buf.Write(b)
	default:
		buf.WriteByte(byte(tagNone))
	}
}

func writeFixed16(buf *bytes.Buffer, b *big.Int) {
	var out [16]byte
	mag := b.Bytes()
	copy(out[16-len(mag):], mag)
	buf.Write(out[:])
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

// writeEscaped encodes b with an order-preserving escape-and-terminate
// scheme (every 0x00 byte becomes 0x00 0xFF, the whole run terminated by
// 0x00 0x00) so that bytes.Compare on the encoded form matches the plain
// lexicographic order of b itself, including across differing lengths
// where one string is a prefix of the other.
func writeEscaped(buf *bytes.Buffer, b []byte) {
	for _, c := range b {
		if c == 0x00 {
			buf.WriteByte(0x00)
			buf.WriteByte(0xFF)
		} else {
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
}

// Decode parses a byte string produced by Encode back into a Key; see
// Encode for the forms its values come back in.
func Decode(b []byte) (Key, error) {
	k, rest, err := decodeOne(b)
	if err != nil {
		return Key{}, err
	}
	if len(rest) != 0 {
		return Key{}, fmt.Errorf("value: trailing bytes after key encoding")
	}
	return k, nil
}

func decodeOne(b []byte) (Key, []byte, error) {
	if len(b) == 0 {
		return Key{}, nil, fmt.Errorf("value: empty key encoding")
	}
	tag := typeTag(b[0])
	rest := b[1:]
	switch tag {
	case tagNone:
		return None(), rest, nil
	case tagList:
		if len(rest) < 4 {
			return Key{}, nil, fmt.Errorf("value: truncated composite key")
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		parts := make([]Key, 0, n)
		for i := uint32(0); i < n; i++ {
			var k Key
			var err error
			k, rest, err = decodeOne(rest)
			if err != nil {
				return Key{}, nil, err
			}
			parts = append(parts, k)
		}
		return CompositeKey(parts), rest, nil
	case tagBool:
		if len(rest) < 1 {
			return Key{}, nil, fmt.Errorf("value: truncated bool key")
		}
		k, _ := NewKey(Bool(rest[0] != 0))
		return k, rest[1:], nil
	case tagInt:
		if len(rest) < 16 {
			return Key{}, nil, fmt.Errorf("value: truncated int key")
		}
		off := new(big.Int).SetBytes(rest[:16])
		off.Sub(off, shift127)
		i, err := Int128FromBig(off)
		if err != nil {
			return Key{}, nil, err
		}
		k, _ := NewKey(I128(i))
		return k, rest[16:], nil
	case tagUint:
		if len(rest) < 16 {
			return Key{}, nil, fmt.Errorf("value: truncated uint key")
		}
		b16 := new(big.Int).SetBytes(rest[:16])
		u, err := Uint128FromBig(b16)
		if err != nil {
			return Key{}, nil, err
		}
		k, _ := NewKey(U128(u))
		return k, rest[16:], nil
	case tagDecimal:
		s, rem, err := readLenPrefixed(rest)
		if err != nil {
			return Key{}, nil, err
		}
		d, err := decimal.NewFromString(string(s))
		if err != nil {
			return Key{}, nil, err
		}
		k, _ := NewKey(Decimal(d))
		return k, rem, nil
	case tagText:
		s, rem, err := readEscaped(rest)
		if err != nil {
			return Key{}, nil, err
		}
		k, _ := NewKey(Text(string(s)))
		return k, rem, nil
	case tagBytes:
		s, rem, err := readEscaped(rest)
		if err != nil {
			return Key{}, nil, err
		}
		k, _ := NewKey(Bytes(s))
		return k, rem, nil
	case tagIP:
		if len(rest) < 16 {
			return Key{}, nil, fmt.Errorf("value: truncated ip key")
		}
		var arr [16]byte
		copy(arr[:], rest[:16])
		a := netip.AddrFrom16(arr).Unmap()
		k, _ := NewKey(IP(a))
		return k, rest[16:], nil
	case tagDate:
		if len(rest) < 6 {
			return Key{}, nil, fmt.Errorf("value: truncated date key")
		}
		y := int32(binary.BigEndian.Uint32(rest[:4]) ^ 0x80000000)
		m := time.Month(rest[4])
		d := int(rest[5])
		k, _ := NewKey(DateVal(NewDate(int(y), m, d)))
		return k, rest[6:], nil
	case tagTimestamp:
		if len(rest) < 8 {
			return Key{}, nil, fmt.Errorf("value: truncated timestamp key")
		}
		n := int64(binary.BigEndian.Uint64(rest[:8]) ^ signBit64)
		k, _ := NewKey(TimestampVal(NewTimestamp(time.Unix(0, n).UTC())))
		return k, rest[8:], nil
	case tagTime:
		if len(rest) < 8 {
			return Key{}, nil, fmt.Errorf("value: truncated time key")
		}
		micros := binary.BigEndian.Uint64(rest[:8])
		total := int64(micros)
		h := total / (3600 * 1_000_000)
		total -= h * 3600 * 1_000_000
		m := total / (60 * 1_000_000)
		total -= m * 60 * 1_000_000
		s := total / 1_000_000
		total -= s * 1_000_000
		k, _ := NewKey(TimeVal(Time{Hour: int(h), Min: int(m), Sec: int(s), Micro: int(total)}))
		return k, rest[8:], nil
	case tagInterval:
		if len(rest) < 9 {
			return Key{}, nil, fmt.Errorf("value: truncated interval key")
		}
		unit := IntervalUnit(rest[0])
		count := int64(binary.BigEndian.Uint64(rest[1:9]) ^ signBit64)
		k, _ := NewKey(IntervalVal(Interval{Unit: unit, Count: count}))
		return k, rest[9:], nil
	case tagUUID:
		if len(rest) < 16 {
			return Key{}, nil, fmt.Errorf("value: truncated uuid key")
		}
		id, err := uuid.FromBytes(rest[:16])
		if err != nil {
			return Key{}, nil, err
		}
		k, _ := NewKey(UUID(id))
		return k, rest[16:], nil
	default:
		return Key{}, nil, fmt.Errorf("value: unknown key tag %d", tag)
	}
}

func readLenPrefixed(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("value: truncated length-prefixed key component")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint32(len(b)) < n {
		return nil, nil, fmt.Errorf("value: truncated length-prefixed key component")
	}
	return b[:n], b[n:], nil
}

// readEscaped is the exact inverse of writeEscaped.
func readEscaped(b []byte) ([]byte, []byte, error) {
	var out []byte
	i := 0
	for {
		if i >= len(b) {
			return nil, nil, fmt.Errorf("value: unterminated escaped key component")
		}
		if b[i] != 0x00 {
			out = append(out, b[i])
			i++
			continue
		}
		if i+1 >= len(b) {
			return nil, nil, fmt.Errorf("value: truncated escape sequence in key component")
		}
		switch b[i+1] {
		case 0x00:
			return out, b[i+2:], nil
		case 0xFF:
			out = append(out, 0x00)
			i += 2
		default:
			return nil, nil, fmt.Errorf("value: invalid escape sequence in key component")
		}
	}
}
