package fn

import (
	"math"
	"math/rand"

	"emberql/value"
)

func registerNumeric(r *Registry) {
	r.register(&Func{Name: "ABS", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Abs)})
	r.register(&Func{Name: "SIGN", MinArgs: 1, MaxArgs: 1, Call: signFn})
	r.register(&Func{Name: "CEIL", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Ceil)})
	r.register(&Func{Name: "CEILING", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Ceil)})
	r.register(&Func{Name: "FLOOR", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Floor)})
	r.register(&Func{Name: "ROUND", MinArgs: 1, MaxArgs: 2, Call: roundFn})
	r.register(&Func{Name: "SQRT", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Sqrt)})
	r.register(&Func{Name: "POWER", MinArgs: 2, MaxArgs: 2, Call: mathFn2(math.Pow)})
	r.register(&Func{Name: "POW", MinArgs: 2, MaxArgs: 2, Call: mathFn2(math.Pow)})
	r.register(&Func{Name: "EXP", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Exp)})
	r.register(&Func{Name: "LN", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Log)})
	r.register(&Func{Name: "LOG", MinArgs: 1, MaxArgs: 2, Call: logFn})
	r.register(&Func{Name: "LOG2", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Log2)})
	r.register(&Func{Name: "LOG10", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Log10)})
	r.register(&Func{Name: "SIN", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Sin)})
	r.register(&Func{Name: "COS", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Cos)})
	r.register(&Func{Name: "TAN", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Tan)})
	r.register(&Func{Name: "ASIN", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Asin)})
	r.register(&Func{Name: "ACOS", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Acos)})
	r.register(&Func{Name: "ATAN", MinArgs: 1, MaxArgs: 1, Call: mathFn1(math.Atan)})
	r.register(&Func{Name: "RADIANS", MinArgs: 1, MaxArgs: 1, Call: mathFn1(func(x float64) float64 { return x * math.Pi / 180 })})
	r.register(&Func{Name: "DEGREES", MinArgs: 1, MaxArgs: 1, Call: mathFn1(func(x float64) float64 { return x * 180 / math.Pi })})
	r.register(&Func{Name: "PI", MinArgs: 0, MaxArgs: 0, NullTolerant: true, Call: func([]value.Value) (value.Value, error) { return value.F64(math.Pi), nil }})
	r.register(&Func{Name: "DIV", MinArgs: 2, MaxArgs: 2, Call: divFn})
	r.register(&Func{Name: "MOD", MinArgs: 2, MaxArgs: 2, Call: func(args []value.Value) (value.Value, error) { return value.Mod(args[0], args[1]) }})
	r.register(&Func{Name: "GCD", MinArgs: 2, MaxArgs: 2, Call: gcdFn})
	r.register(&Func{Name: "LCM", MinArgs: 2, MaxArgs: 2, Call: lcmFn})
	r.register(&Func{Name: "RAND", MinArgs: 0, MaxArgs: 1, NullTolerant: true, Call: randFn})
}

func mathFn1(f func(float64) float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		x, ok := args[0].AsFloat64()
		if !ok {
			return value.Value{}, &Error{Op: "NonNumericArgument", Msg: "expected a numeric argument"}
		}
		return value.F64(f(x)), nil
	}
}

func mathFn2(f func(float64, float64) float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		x, ok1 := args[0].AsFloat64()
		y, ok2 := args[1].AsFloat64()
		if !ok1 || !ok2 {
			return value.Value{}, &Error{Op: "NonNumericArgument", Msg: "expected numeric arguments"}
		}
		return value.F64(f(x, y)), nil
	}
}

func signFn(args []value.Value) (value.Value, error) {
	x, ok := args[0].AsFloat64()
	if !ok {
		return value.Value{}, &Error{Op: "NonNumericArgument", Msg: "SIGN expects a numeric argument"}
	}
	switch {
	case x > 0:
		return value.I32(1), nil
	case x < 0:
		return value.I32(-1), nil
	default:
		return value.I32(0), nil
	}
}

func roundFn(args []value.Value) (value.Value, error) {
	x, ok := args[0].AsFloat64()
	if !ok {
		return value.Value{}, &Error{Op: "NonNumericArgument", Msg: "ROUND expects a numeric argument"}
	}
	digits := int64(0)
	if len(args) == 2 {
		d, err := intArg(args[1])
		if err != nil {
			return value.Value{}, err
		}
		digits = d
	}
	scale := math.Pow(10, float64(digits))
	return value.F64(math.Round(x*scale) / scale), nil
}

func logFn(args []value.Value) (value.Value, error) {
	if len(args) == 1 {
		x, _ := args[0].AsFloat64()
		return value.F64(math.Log(x)), nil
	}
	base, _ := args[0].AsFloat64()
	x, _ := args[1].AsFloat64()
	return value.F64(math.Log(x) / math.Log(base)), nil
}

func divFn(args []value.Value) (value.Value, error) {
	a, err := intArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if b == 0 {
		return value.Value{}, value.ErrDivisorShouldNotBeZero()
	}
	return value.I64(a / b), nil
}

func gcdFn(args []value.Value) (value.Value, error) {
	a, err := intArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	return value.I64(gcd(abs64(a), abs64(b))), nil
}

func lcmFn(args []value.Value) (value.Value, error) {
	a, err := intArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	b, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if a == 0 || b == 0 {
		return value.I64(0), nil
	}
	g := gcd(abs64(a), abs64(b))
	return value.I64(abs64(a / g * b)), nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// randFn accepts an optional seed for reproducibility; without one
// it draws from the package-level math/rand source.
func randFn(args []value.Value) (value.Value, error) {
	if len(args) == 1 && !args[0].IsNull() {
		seed, err := intArg(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.F64(rand.New(rand.NewSource(seed)).Float64()), nil
	}
	return value.F64(rand.Float64()), nil
}
