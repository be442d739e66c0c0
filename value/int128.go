package value

import "math/big"

// Int128 and Uint128 back the widest integer variants. The corpus's only
// 128-bit integer library (lukechampine.com/uint128, pulled in transitively
// by sqldef-sqldef's modernc sqlite driver) is unsigned-only, which would
// still leave the signed side hand-rolled; math/big.Int gives exact,
// overflow-checkable arithmetic for both signed and unsigned 128-bit values
// from a single dependency already in every Go toolchain, so it is used for
// both rather than mixing a third-party unsigned type with a bespoke signed
// one. Values are always normalized to fit within the declared width; an
// operation that would not fit returns BinaryOperationOverflow instead of
// wrapping.

var (
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Int128 is a signed 128-bit integer.
type Int128 struct{ v big.Int }

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct{ v big.Int }

func NewInt128(i int64) Int128 {
	var x Int128
	x.v.SetInt64(i)
	return x
}

func NewUint128(u uint64) Uint128 {
	var x Uint128
	x.v.SetUint64(u)
	return x
}

func Int128FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(minI128) < 0 || b.Cmp(maxI128) > 0 {
		return Int128{}, newErr("BinaryOperationOverflow", "%s does not fit in INT128", b.String())
	}
	var x Int128
	x.v.Set(b)
	return x, nil
}

func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 || b.Cmp(maxU128) > 0 {
		return Uint128{}, newErr("BinaryOperationOverflow", "%s does not fit in UINT128", b.String())
	}
	var x Uint128
	x.v.Set(b)
	return x, nil
}

func (i Int128) Big() *big.Int  { return new(big.Int).Set(&i.v) }
func (u Uint128) Big() *big.Int { return new(big.Int).Set(&u.v) }

func (i Int128) String() string  { return i.v.String() }
func (u Uint128) String() string { return u.v.String() }

func (i Int128) Cmp(o Int128) int  { return i.v.Cmp(&o.v) }
func (u Uint128) Cmp(o Uint128) int { return u.v.Cmp(&o.v) }

func (i Int128) Sign() int  { return i.v.Sign() }
func (u Uint128) Sign() int { return u.v.Sign() }

func (i Int128) Int64() (int64, bool) {
	if !i.v.IsInt64() {
		return 0, false
	}
	return i.v.Int64(), true
}

func (u Uint128) Uint64() (uint64, bool) {
	if !u.v.IsUint64() {
		return 0, false
	}
	return u.v.Uint64(), true
}

func (i Int128) Float64() float64  { f, _ := new(big.Float).SetInt(&i.v).Float64(); return f }
func (u Uint128) Float64() float64 { f, _ := new(big.Float).SetInt(&u.v).Float64(); return f }

// fitsSignedWidth reports whether a signed big.Int value fits in the given bit width.
func fitsSignedWidth(b *big.Int, width int) bool {
	lim := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	min := new(big.Int).Neg(lim)
	max := new(big.Int).Sub(lim, big.NewInt(1))
	return b.Cmp(min) >= 0 && b.Cmp(max) <= 0
}

// fitsUnsignedWidth reports whether an unsigned big.Int value fits in the given bit width.
func fitsUnsignedWidth(b *big.Int, width int) bool {
	if b.Sign() < 0 {
		return false
	}
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
	return b.Cmp(max) <= 0
}

func i128Add(a, b Int128) (Int128, error) { return i128Op("+", a, b, new(big.Int).Add) }
func i128Sub(a, b Int128) (Int128, error) { return i128Op("-", a, b, new(big.Int).Sub) }
func i128Mul(a, b Int128) (Int128, error) { return i128Op("*", a, b, new(big.Int).Mul) }

func i128Op(op string, a, b Int128, f func(x, y *big.Int) *big.Int) (Int128, error) {
	r := f(&a.v, &b.v)
	if r.Cmp(minI128) < 0 || r.Cmp(maxI128) > 0 {
		return Int128{}, newErr("BinaryOperationOverflow", "%s %s %s overflowed INT128", a.String(), op, b.String())
	}
	var x Int128
	x.v.Set(r)
	return x, nil
}

func i128Div(a, b Int128) (Int128, error) {
	if b.Sign() == 0 {
		return Int128{}, ErrDivisorShouldNotBeZero()
	}
	q := new(big.Int)
	q.Quo(&a.v, &b.v)
	var x Int128
	x.v.Set(q)
	return x, nil
}

func i128Mod(a, b Int128) (Int128, error) {
	if b.Sign() == 0 {
		return Int128{}, ErrDivisorShouldNotBeZero()
	}
	m := new(big.Int)
	m.Rem(&a.v, &b.v)
	var x Int128
	x.v.Set(m)
	return x, nil
}

func u128Add(a, b Uint128) (Uint128, error) { return u128Op("+", a, b, new(big.Int).Add) }
func u128Sub(a, b Uint128) (Uint128, error) { return u128Op("-", a, b, new(big.Int).Sub) }
func u128Mul(a, b Uint128) (Uint128, error) { return u128Op("*", a, b, new(big.Int).Mul) }

func u128Op(op string, a, b Uint128, f func(x, y *big.Int) *big.Int) (Uint128, error) {
	r := f(&a.v, &b.v)
	if r.Sign() < 0 || r.Cmp(maxU128) > 0 {
		return Uint128{}, newErr("BinaryOperationOverflow", "%s %s %s overflowed UINT128", a.String(), op, b.String())
	}
	var x Uint128
	x.v.Set(r)
	return x, nil
}

func u128Div(a, b Uint128) (Uint128, error) {
	if b.Sign() == 0 {
		return Uint128{}, ErrDivisorShouldNotBeZero()
	}
	q := new(big.Int).Quo(&a.v, &b.v)
	var x Uint128
	x.v.Set(q)
	return x, nil
}

func u128Mod(a, b Uint128) (Uint128, error) {
	if b.Sign() == 0 {
		return Uint128{}, ErrDivisorShouldNotBeZero()
	}
	m := new(big.Int).Rem(&a.v, &b.v)
	var x Uint128
	x.v.Set(m)
	return x, nil
}
