package value

// Concat implements `||`: defined for text and lists; numeric operands are
// stringified first; Null propagates.
func Concat(a, b Value) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null(), nil
	}
	if a.kind == KindList && b.kind == KindList {
		out := make([]Value, 0, len(a.list)+len(b.list))
		out = append(out, a.list...)
		out = append(out, b.list...)
		return List(out), nil
	}
	if a.kind == KindList || b.kind == KindList {
		return Value{}, ErrUnsupportedBinaryOperation("||", a.kind, b.kind)
	}
	return Text(a.String() + b.String()), nil
}
