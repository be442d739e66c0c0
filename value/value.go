package value

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	omap "github.com/wk8/go-ordered-map/v2"
)

// Map is the ordered text-key-to-Value mapping variant. A bare Go
// map does not preserve insertion order, which schemaless rows and the
// document column depend on for stable projection and round-tripping;
// go-ordered-map provides that without a bespoke linked-map implementation.
type Map = omap.OrderedMap[string, Value]

// NewMap returns an empty ordered map ready for use as a Value.
func NewMap() *Map { return omap.New[string, Value]() }

// ParseDecimalLiteral parses a decimal literal as rendered by the parser
// (e.g. from a typed string or numeric literal token) into a Decimal Value.
func ParseDecimalLiteral(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, err
	}
	return Decimal(d), nil
}

// Value is the engine's tagged-union scalar: exactly one of the fields
// below is meaningful, selected by Kind. Null has no payload.
type Value struct {
	kind Kind

	b    bool
	i    Int128
	u    Uint128
	f32  float32
	f64  float64
	dec  decimal.Decimal
	s    string
	bs   []byte
	ip   netip.Addr
	date Date
	ts   Timestamp
	tod  Time
	iv   Interval
	id   uuid.UUID
	m    *Map
	list []Value
	pt   Point
}

func Null() Value { return Value{kind: KindNull} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func (v Value) Bool() bool { return v.b }

func I8(i int8) Value   { return Value{kind: KindI8, i: NewInt128(int64(i))} }
func I16(i int16) Value { return Value{kind: KindI16, i: NewInt128(int64(i))} }
func I32(i int32) Value { return Value{kind: KindI32, i: NewInt128(int64(i))} }
func I64(i int64) Value { return Value{kind: KindI64, i: NewInt128(i)} }
func I128(i Int128) Value { return Value{kind: KindI128, i: i} }

func U8(u uint8) Value   { return Value{kind: KindU8, u: NewUint128(uint64(u))} }
func U16(u uint16) Value { return Value{kind: KindU16, u: NewUint128(uint64(u))} }
func U32(u uint32) Value { return Value{kind: KindU32, u: NewUint128(uint64(u))} }
func U64(u uint64) Value { return Value{kind: KindU64, u: NewUint128(u)} }
func U128(u Uint128) Value { return Value{kind: KindU128, u: u} }

func F32(f float32) Value { return Value{kind: KindF32, f32: f} }
func F64(f float64) Value { return Value{kind: KindF64, f64: f} }

func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }

func Text(s string) Value  { return Value{kind: KindText, s: s} }
func Bytes(b []byte) Value { return Value{kind: KindBytes, bs: b} }

func IP(a netip.Addr) Value { return Value{kind: KindIP, ip: a} }

func DateVal(d Date) Value           { return Value{kind: KindDate, date: d} }
func TimestampVal(t Timestamp) Value { return Value{kind: KindTimestamp, ts: t} }
func TimeVal(t Time) Value           { return Value{kind: KindTime, tod: t} }
func IntervalVal(iv Interval) Value  { return Value{kind: KindInterval, iv: iv} }

func UUID(id uuid.UUID) Value { return Value{kind: KindUUID, id: id} }

func MapVal(m *Map) Value    { return Value{kind: KindMap, m: m} }
func List(vs []Value) Value  { return Value{kind: KindList, list: vs} }
func PointVal(p Point) Value { return Value{kind: KindPoint, pt: p} }

// Int128Of returns the Int128 payload of a signed-integer-kinded Value;
// unsigned kinds keep theirs in Uint128Of and read as zero here.
func (v Value) Int128Of() Int128 { return v.i }

// Uint128Of returns the Uint128 payload of an unsigned-integer-kinded Value.
func (v Value) Uint128Of() Uint128 { return v.u }

func (v Value) Float32Of() float32     { return v.f32 }
func (v Value) Float64Of() float64     { return v.f64 }
func (v Value) DecimalOf() decimal.Decimal { return v.dec }
func (v Value) TextOf() string         { return v.s }
func (v Value) BytesOf() []byte        { return v.bs }
func (v Value) IPOf() netip.Addr       { return v.ip }
func (v Value) DateOf() Date           { return v.date }
func (v Value) TimestampOf() Timestamp { return v.ts }
func (v Value) TimeOf() Time           { return v.tod }
func (v Value) IntervalOf() Interval   { return v.iv }
func (v Value) UUIDOf() uuid.UUID      { return v.id }
func (v Value) MapOf() *Map            { return v.m }
func (v Value) ListOf() []Value        { return v.list }
func (v Value) PointOf() Point         { return v.pt }

// AsFloat64 widens any numeric Value to a float64, for contexts (like
// aggregate accumulators) that need a uniform numeric reading regardless of
// storage width.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		return v.i.Float64(), true
	case KindU8, KindU16, KindU32, KindU64, KindU128:
		return v.u.Float64(), true
	case KindF32:
		return float64(v.f32), true
	case KindF64:
		return v.f64, true
	case KindDecimal:
		f, _ := v.dec.Float64()
		return f, true
	default:
		return 0, false
	}
}

// String renders the value for diagnostics and for CONCAT's numeric
// stringification step.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		return v.i.String()
	case KindU8, KindU16, KindU32, KindU64, KindU128:
		return v.u.String()
	case KindF32:
		return fmt.Sprintf("%g", v.f32)
	case KindF64:
		return fmt.Sprintf("%g", v.f64)
	case KindDecimal:
		return v.dec.String()
	case KindText:
		return v.s
	case KindBytes:
		return fmt.Sprintf("%x", v.bs)
	case KindIP:
		return v.ip.String()
	case KindDate:
		return v.date.String()
	case KindTimestamp:
		return v.ts.String()
	case KindTime:
		return v.tod.String()
	case KindInterval:
		return v.iv.String()
	case KindUUID:
		return v.id.String()
	case KindPoint:
		return v.pt.String()
	case KindList:
		out := "["
		for i, e := range v.list {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	case KindMap:
		out := "{"
		i := 0
		if v.m != nil {
			for p := v.m.Oldest(); p != nil; p = p.Next() {
				if i > 0 {
					out += ", "
				}
				out += p.Key + ": " + p.Value.String()
				i++
			}
		}
		return out + "}"
	default:
		return "<unknown>"
	}
}
