package value

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Cast attempts a total conversion of v to the given target Kind: strings
// parse per RFC/ISO rules for dates, times, UUIDs and IPs; booleans accept
// "TRUE"/"FALSE"/"0"/"1". It never returns a partial result: a text
// operand that does not parse yields IncompatibleLiteralForDataType, any
// other unsupported or lossy conversion yields IncompatibleDataType, and an
// integer that does not fit the target width yields BinaryOperationOverflow.
func Cast(v Value, target Kind) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	switch target {
	case KindBool:
		return castBool(v)
	case KindText:
		return Text(v.String()), nil
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		return castInt(v, target)
	case KindU8, KindU16, KindU32, KindU64, KindU128:
		return castUint(v, target)
	case KindF32, KindF64:
		return castFloat(v, target)
	case KindDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		return Decimal(d), nil
	case KindDate:
		if v.kind == KindText {
			d, err := ParseDate(v.s)
			if err != nil {
				return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
			}
			return DateVal(d), nil
		}
	case KindTimestamp:
		if v.kind == KindText {
			t, err := ParseTimestamp(v.s)
			if err != nil {
				return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
			}
			return TimestampVal(t), nil
		}
	case KindTime:
		if v.kind == KindText {
			t, err := ParseTime(v.s)
			if err != nil {
				return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
			}
			return TimeVal(t), nil
		}
	case KindUUID:
		if v.kind == KindText {
			id, err := uuid.Parse(v.s)
			if err != nil {
				return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
			}
			return UUID(id), nil
		}
	case KindIP:
		if v.kind == KindText {
			a, err := netip.ParseAddr(v.s)
			if err != nil {
				return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
			}
			return IP(a), nil
		}
	case KindMap, KindList:
		if v.kind == KindText {
			parsed, err := ParseJSON(v.s)
			if err != nil || parsed.Kind() != target {
				return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
			}
			return parsed, nil
		}
	}
	return Value{}, ErrIncompatibleDataType(v.kind, target)
}

func castBool(v Value) (Value, error) {
	switch v.kind {
	case KindBool:
		return v, nil
	case KindText:
		switch strings.ToUpper(v.s) {
		case "TRUE", "1":
			return Bool(true), nil
		case "FALSE", "0":
			return Bool(false), nil
		default:
			return Value{}, ErrIncompatibleLiteralForDataType(v.s, KindBool)
		}
	case KindI8, KindI16, KindI32, KindI64, KindI128, KindU8, KindU16, KindU32, KindU64, KindU128:
		return Bool(v.toBigInt().Sign() != 0), nil
	default:
		return Value{}, ErrIncompatibleDataType(v.kind, KindBool)
	}
}

func castInt(v Value, target Kind) (Value, error) {
	switch v.kind {
	case KindText:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
		}
		return fromInt128(target, NewInt128(n))
	case KindBool:
		if v.b {
			return fromInt128(target, NewInt128(1))
		}
		return fromInt128(target, NewInt128(0))
	case KindF32, KindF64:
		f, _ := v.AsFloat64()
		if f != float64(int64(f)) {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		return fromInt128(target, NewInt128(int64(f)))
	case KindDecimal:
		if !v.dec.Equal(v.dec.Truncate(0)) {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		return fromInt128(target, NewInt128(v.dec.IntPart()))
	default:
		if v.kind.IsSignedInt() {
			return fromInt128(target, v.i)
		}
		if v.kind.IsUnsignedInt() {
			wi, err := widenToInt128(v)
			if err != nil {
				return Value{}, err
			}
			return fromInt128(target, wi)
		}
		return Value{}, ErrIncompatibleDataType(v.kind, target)
	}
}

func castUint(v Value, target Kind) (Value, error) {
	switch v.kind {
	case KindText:
		n, err := strconv.ParseUint(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
		}
		return fromUint128(target, NewUint128(n))
	case KindBool:
		if v.b {
			return fromUint128(target, NewUint128(1))
		}
		return fromUint128(target, NewUint128(0))
	case KindF32, KindF64, KindDecimal:
		whole, err := castInt(v, KindI128)
		if err != nil {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		v = whole
		fallthrough
	default:
		if !v.kind.IsInt() {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		u, err := widenToUint128(v)
		if err != nil {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		return fromUint128(target, u)
	}
}

func castFloat(v Value, target Kind) (Value, error) {
	var f float64
	switch v.kind {
	case KindText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return Value{}, ErrIncompatibleLiteralForDataType(v.s, target)
		}
		f = parsed
	default:
		got, ok := v.AsFloat64()
		if !ok {
			return Value{}, ErrIncompatibleDataType(v.kind, target)
		}
		f = got
	}
	if target == KindF32 {
		return F32(float32(f)), nil
	}
	return F64(f), nil
}

// MustParseBoolLiteral implements the "TRUE"|"FALSE"|"0"|"1" literal rule
// used when the translator folds a typed boolean string literal.
func MustParseBoolLiteral(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "TRUE", "1":
		return true, nil
	case "FALSE", "0":
		return false, nil
	default:
		return false, fmt.Errorf("value: %q is not a valid boolean literal", s)
	}
}
