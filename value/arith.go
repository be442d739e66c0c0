package value

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// toBigInt widens any integer-kinded Value to a big.Int for exact
// cross-width comparison and arithmetic staging.
func (v Value) toBigInt() *big.Int {
	if v.kind.IsSignedInt() {
		return v.i.Big()
	}
	return v.u.Big()
}

func toDecimal(v Value) (decimal.Decimal, error) {
	switch v.kind {
	case KindDecimal:
		return v.dec, nil
	case KindF32:
		return decimal.NewFromFloat32(v.f32), nil
	case KindF64:
		return decimal.NewFromFloat(v.f64), nil
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		return decimal.NewFromBigInt(v.i.Big(), 0), nil
	case KindU8, KindU16, KindU32, KindU64, KindU128:
		return decimal.NewFromBigInt(v.u.Big(), 0), nil
	default:
		return decimal.Decimal{}, ErrIncompatibleDataType(v.kind, KindDecimal)
	}
}

// commonNumericKind implements the promotion lattice of : same-type
// arithmetic stays in that type; mixed signed/unsigned widens to the
// larger signed width if it fits; integer with float promotes to the wider
// float width; anything with decimal promotes to decimal.
func commonNumericKind(a, b Kind) (Kind, error) {
	if a == b {
		return a, nil
	}
	if a == KindDecimal || b == KindDecimal {
		return KindDecimal, nil
	}
	if a.IsFloat() || b.IsFloat() {
		if a == KindF64 || b == KindF64 {
			return KindF64, nil
		}
		return KindF32, nil
	}
	if a.IsInt() && b.IsInt() {
		wa, wb := intOrUintWidth(a), intOrUintWidth(b)
		w := wa
		if wb > w {
			w = wb
		}
		if a.IsUnsignedInt() && b.IsUnsignedInt() {
			return unsignedKindForWidth(w), nil
		}
		// mixed signedness: widen to the next signed width that can hold
		// the unsigned side; 128 is the ceiling, so U128 mixed with any
		// signed kind cannot always widen safely and is rejected.
		if w >= 128 && (a.IsUnsignedInt() || b.IsUnsignedInt()) {
			uw := w
			if a.IsUnsignedInt() {
				uw = intOrUintWidth(a)
			}
			if b.IsUnsignedInt() && intOrUintWidth(b) > uw {
				uw = intOrUintWidth(b)
			}
			if uw >= 128 {
				return 0, ErrUnsupportedBinaryOperation("arithmetic", a, b)
			}
		}
		target := w
		if a.IsUnsignedInt() != b.IsUnsignedInt() {
			uw := intOrUintWidth(a)
			if b.IsUnsignedInt() {
				uw = intOrUintWidth(b)
			}
			if uw*2 > target {
				target = uw * 2
			}
		}
		return signedKindForWidth(target), nil
	}
	return 0, ErrUnsupportedBinaryOperation("arithmetic", a, b)
}

func intOrUintWidth(k Kind) int {
	if k.IsSignedInt() {
		return intWidth(k)
	}
	return uintWidth(k)
}

func signedKindForWidth(w int) Kind {
	switch {
	case w <= 8:
		return KindI8
	case w <= 16:
		return KindI16
	case w <= 32:
		return KindI32
	case w <= 64:
		return KindI64
	default:
		return KindI128
	}
}

func unsignedKindForWidth(w int) Kind {
	switch {
	case w <= 8:
		return KindU8
	case w <= 16:
		return KindU16
	case w <= 32:
		return KindU32
	case w <= 64:
		return KindU64
	default:
		return KindU128
	}
}

// widenToInt128 widens any signed-or-unsigned integer Value to a signed
// Int128 for staging an arithmetic op before the overflow check against
// the target width.
func widenToInt128(v Value) (Int128, error) {
	if v.kind.IsSignedInt() {
		return v.i, nil
	}
	return Int128FromBig(v.u.Big())
}

func widenToUint128(v Value) (Uint128, error) {
	if v.kind.IsUnsignedInt() {
		return v.u, nil
	}
	return Uint128FromBig(v.i.Big())
}

func fromInt128(k Kind, i Int128) (Value, error) {
	if k == KindI128 {
		return I128(i), nil
	}
	w := intWidth(k)
	if !fitsSignedWidth(i.Big(), w) {
		return Value{}, ErrBinaryOperationOverflow("arithmetic", Value{kind: k}, Value{kind: k})
	}
	n, _ := i.Int64()
	switch k {
	case KindI8:
		return I8(int8(n)), nil
	case KindI16:
		return I16(int16(n)), nil
	case KindI32:
		return I32(int32(n)), nil
	default:
		return I64(n), nil
	}
}

func fromUint128(k Kind, u Uint128) (Value, error) {
	if k == KindU128 {
		return U128(u), nil
	}
	w := uintWidth(k)
	if !fitsUnsignedWidth(u.Big(), w) {
		return Value{}, ErrBinaryOperationOverflow("arithmetic", Value{kind: k}, Value{kind: k})
	}
	n, _ := u.Uint64()
	switch k {
	case KindU8:
		return U8(uint8(n)), nil
	case KindU16:
		return U16(uint16(n)), nil
	case KindU32:
		return U32(uint32(n)), nil
	default:
		return U64(n), nil
	}
}

type intOp func(a, b Int128) (Int128, error)
type uintOp func(a, b Uint128) (Uint128, error)

func arithInt(kind Kind, a, b Value, fi intOp, fu uintOp) (Value, error) {
	if kind.IsSignedInt() {
		ia, err := widenToInt128(a)
		if err != nil {
			return Value{}, err
		}
		ib, err := widenToInt128(b)
		if err != nil {
			return Value{}, err
		}
		r, err := fi(ia, ib)
		if err != nil {
			return Value{}, err
		}
		return fromInt128(kind, r)
	}
	ua, err := widenToUint128(a)
	if err != nil {
		return Value{}, err
	}
	ub, err := widenToUint128(b)
	if err != nil {
		return Value{}, err
	}
	r, err := fu(ua, ub)
	if err != nil {
		return Value{}, err
	}
	return fromUint128(kind, r)
}

// Add implements the numeric `+` operator including interval addition and
// scaling.
func Add(a, b Value) (Value, error) {
	if a.kind == KindInterval || b.kind == KindInterval {
		return intervalArith(a, b, "+")
	}
	return binaryNumeric("+", a, b, ErrAddOnNonNumeric,
		func(x, y Int128) (Int128, error) { return i128Add(x, y) },
		func(x, y Uint128) (Uint128, error) { return u128Add(x, y) },
		func(x, y float64) float64 { return x + y },
		func(x, y decimal.Decimal) decimal.Decimal { return x.Add(y) })
}

// Sub implements the numeric `-` operator.
func Sub(a, b Value) (Value, error) {
	if a.kind == KindInterval || b.kind == KindInterval {
		return intervalArith(a, b, "-")
	}
	return binaryNumeric("-", a, b, ErrSubtractOnNonNumeric,
		func(x, y Int128) (Int128, error) { return i128Sub(x, y) },
		func(x, y Uint128) (Uint128, error) { return u128Sub(x, y) },
		func(x, y float64) float64 { return x - y },
		func(x, y decimal.Decimal) decimal.Decimal { return x.Sub(y) })
}

// Mul implements the numeric `*` operator including interval scaling.
func Mul(a, b Value) (Value, error) {
	if a.kind == KindInterval || b.kind == KindInterval {
		return intervalArith(a, b, "*")
	}
	return binaryNumeric("*", a, b, ErrMultiplyOnNonNumeric,
		func(x, y Int128) (Int128, error) { return i128Mul(x, y) },
		func(x, y Uint128) (Uint128, error) { return u128Mul(x, y) },
		func(x, y float64) float64 { return x * y },
		func(x, y decimal.Decimal) decimal.Decimal { return x.Mul(y) })
}

// Div implements the numeric `/` operator including interval scaling.
func Div(a, b Value) (Value, error) {
	if a.kind == KindInterval || b.kind == KindInterval {
		return intervalArith(a, b, "/")
	}
	return binaryNumeric("/", a, b, ErrDivideOnNonNumeric,
		func(x, y Int128) (Int128, error) { return i128Div(x, y) },
		func(x, y Uint128) (Uint128, error) { return u128Div(x, y) },
		func(x, y float64) float64 { return x / y },
		func(x, y decimal.Decimal) decimal.Decimal { return x.Div(y) })
}

// Mod implements the numeric `%` operator.
func Mod(a, b Value) (Value, error) {
	return binaryNumeric("%", a, b, ErrModuloOnNonNumeric,
		func(x, y Int128) (Int128, error) { return i128Mod(x, y) },
		func(x, y Uint128) (Uint128, error) { return u128Mod(x, y) },
		func(x, y float64) float64 {
			q := float64(int64(x / y))
			return x - q*y
		},
		func(x, y decimal.Decimal) decimal.Decimal { return x.Mod(y) })
}

func binaryNumeric(
	op string, a, b Value, onNonNumeric func(a, b Kind) error,
	fi intOp, fu uintOp, ff func(a, b float64) float64, fd func(a, b decimal.Decimal) decimal.Decimal,
) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if !a.kind.IsNumeric() || !b.kind.IsNumeric() {
		return Value{}, onNonNumeric(a.kind, b.kind)
	}
	target, err := commonNumericKind(a.kind, b.kind)
	if err != nil {
		return Value{}, err
	}
	switch {
	case target == KindDecimal:
		da, err := toDecimal(a)
		if err != nil {
			return Value{}, err
		}
		db, err := toDecimal(b)
		if err != nil {
			return Value{}, err
		}
		if (op == "/" || op == "%") && db.IsZero() {
			return Value{}, ErrDivisorShouldNotBeZero()
		}
		return Decimal(fd(da, db)), nil
	case target.IsFloat():
		fa, _ := a.AsFloat64()
		fb, _ := b.AsFloat64()
		if (op == "/" || op == "%") && fb == 0 {
			return Value{}, ErrDivisorShouldNotBeZero()
		}
		r := ff(fa, fb)
		if target == KindF32 {
			return F32(float32(r)), nil
		}
		return F64(r), nil
	default:
		return arithInt(target, a, b, fi, fu)
	}
}

func intervalArith(a, b Value, op string) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if a.kind == KindInterval && b.kind == KindInterval {
		switch op {
		case "+":
			r, err := a.iv.Add(b.iv)
			return IntervalVal(r), err
		case "-":
			r, err := a.iv.Sub(b.iv)
			return IntervalVal(r), err
		default:
			return Value{}, ErrUnsupportedBinaryOperation(op, a.kind, b.kind)
		}
	}
	// interval (op) numeric, or numeric (op) interval: scales the interval.
	var iv Interval
	var scalar Value
	if a.kind == KindInterval {
		iv, scalar = a.iv, b
	} else {
		iv, scalar = b.iv, a
	}
	if !scalar.kind.IsNumeric() {
		return Value{}, ErrUnsupportedBinaryOperation(op, a.kind, b.kind)
	}
	f, _ := scalar.AsFloat64()
	switch op {
	case "*":
		return IntervalVal(iv.Scale(int64(f))), nil
	case "/":
		r, err := iv.DivScalar(int64(f))
		return IntervalVal(r), err
	default:
		return Value{}, ErrUnsupportedBinaryOperation(op, a.kind, b.kind)
	}
}

// Factorial implements `!`, defined only for non-negative integers <= 33
// (the largest whose factorial fits in a signed INT128).
func Factorial(v Value) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	if !v.kind.IsInt() {
		return Value{}, ErrFactorialOnNonInteger()
	}
	n := v.toBigInt()
	if n.Sign() < 0 {
		return Value{}, ErrFactorialOnNegative()
	}
	if !n.IsInt64() || n.Int64() > 33 {
		return Value{}, ErrFactorialOverflow(n.Int64())
	}
	result := big.NewInt(1)
	for i := int64(2); i <= n.Int64(); i++ {
		result.Mul(result, big.NewInt(i))
	}
	r, err := Int128FromBig(result)
	if err != nil {
		return Value{}, ErrFactorialOverflow(n.Int64())
	}
	return I128(r), nil
}

// BitwiseNot implements `~`, defined only on integer types, width
// preserved.
func BitwiseNot(v Value) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	if !v.kind.IsInt() {
		return Value{}, ErrBitwiseNotOnNonInteger(v.kind)
	}
	if v.kind.IsSignedInt() {
		b := new(big.Int).Not(v.i.Big())
		w := intWidth(v.kind)
		// two's complement wrap within the declared width.
		mod := new(big.Int).Lsh(big.NewInt(1), uint(w))
		b.Mod(b, mod)
		if b.Bit(w-1) == 1 {
			b.Sub(b, mod)
		}
		r, err := fromInt128Big(v.kind, b)
		return r, err
	}
	b := new(big.Int).Not(v.u.Big())
	w := uintWidth(v.kind)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(w))
	b.Mod(b, mod)
	return fromUint128Big(v.kind, b)
}

func fromInt128Big(k Kind, b *big.Int) (Value, error) {
	i, err := Int128FromBig(b)
	if err != nil {
		return Value{}, err
	}
	return fromInt128(k, i)
}

func fromUint128Big(k Kind, b *big.Int) (Value, error) {
	u, err := Uint128FromBig(b)
	if err != nil {
		return Value{}, err
	}
	return fromUint128(k, u)
}
