package fn

import (
	"github.com/google/uuid"

	"emberql/value"
)

func registerData(r *Registry) {
	r.register(&Func{Name: "IFNULL", MinArgs: 2, MaxArgs: 2, NullTolerant: true, Call: ifNullFn})
	r.register(&Func{Name: "COALESCE", MinArgs: 1, MaxArgs: -1, NullTolerant: true, Call: coalesceFn})
	r.register(&Func{Name: "GENERATE_UUID", MinArgs: 0, MaxArgs: 0, NullTolerant: true, Call: func([]value.Value) (value.Value, error) {
		return value.UUID(uuid.New()), nil
	}})
}

func ifNullFn(args []value.Value) (value.Value, error) {
	if !args[0].IsNull() {
		return args[0], nil
	}
	return args[1], nil
}

func coalesceFn(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return value.Null(), nil
}

// Unwrap implements map/list navigation for the `->`/`->>` array-index
// operator: a Map is indexed by a Text key, a List by an
// integer ordinal (0-based).
func Unwrap(base, idx value.Value) (value.Value, error) {
	if base.IsNull() || idx.IsNull() {
		return value.Null(), nil
	}
	switch base.Kind() {
	case value.KindMap:
		v, ok := base.MapOf().Get(idx.TextOf())
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	case value.KindList:
		i, err := intArg(idx)
		if err != nil {
			return value.Value{}, err
		}
		list := base.ListOf()
		if i < 0 || i >= int64(len(list)) {
			return value.Null(), nil
		}
		return list[i], nil
	default:
		return value.Value{}, &Error{Op: "IncompatibleDataType", Msg: "UNWRAP target is not a map or list"}
	}
}

// BitwiseBinary implements `&`/`|`/`^` over integer operands.
func BitwiseBinary(and, or bool, l, r value.Value) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.Null(), nil
	}
	li, err := intArg(l)
	if err != nil {
		return value.Value{}, err
	}
	ri, err := intArg(r)
	if err != nil {
		return value.Value{}, err
	}
	switch {
	case and:
		return value.I64(li & ri), nil
	case or:
		return value.I64(li | ri), nil
	default:
		return value.I64(li ^ ri), nil
	}
}
