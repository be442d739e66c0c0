package value

// Ordering is the tri-state result of comparing two values: Less, Equal,
// Greater, or Incomparable when the comparison is not defined.
type Ordering uint8

const (
	Less Ordering = iota
	Equal
	Greater
	Incomparable
)

// Compare implements partial_cmp: Null compared to anything is
// Incomparable, same-kind scalars compare naturally, and a small set of
// cross-kind numeric comparisons are defined by widening the narrower side.
func Compare(a, b Value) Ordering {
	if a.IsNull() || b.IsNull() {
		return Incomparable
	}
	if a.kind.IsNumeric() && b.kind.IsNumeric() {
		return compareNumeric(a, b)
	}
	if a.kind != b.kind {
		return Incomparable
	}
	switch a.kind {
	case KindBool:
		return boolOrdering(a.b, b.b)
	case KindText:
		return stringOrdering(a.s, b.s)
	case KindBytes:
		return bytesOrdering(a.bs, b.bs)
	case KindIP:
		return intOrdering(a.ip.Compare(b.ip))
	case KindDate:
		return intOrdering(a.date.Compare(b.date))
	case KindTimestamp:
		return intOrdering(a.ts.Compare(b.ts))
	case KindTime:
		return intOrdering(a.tod.Compare(b.tod))
	case KindUUID:
		bs1, bs2 := a.id, b.id
		for i := range bs1 {
			if bs1[i] != bs2[i] {
				if bs1[i] < bs2[i] {
					return Less
				}
				return Greater
			}
		}
		return Equal
	case KindInterval:
		c, ok := a.iv.Compare(b.iv)
		if !ok {
			return Incomparable
		}
		return intOrdering(c)
	case KindList:
		return listOrdering(a.list, b.list)
	default:
		return Incomparable
	}
}

func boolOrdering(a, b bool) Ordering {
	if a == b {
		return Equal
	}
	if !a {
		return Less
	}
	return Greater
}

func stringOrdering(a, b string) Ordering { return intOrdering(compareStrings(a, b)) }

func compareStrings(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func bytesOrdering(a, b []byte) Ordering {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return Less
			}
			return Greater
		}
	}
	return intOrdering(len(a) - len(b))
}

func listOrdering(a, b []Value) Ordering {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if o := Compare(a[i], b[i]); o != Equal {
			return o
		}
	}
	return intOrdering(len(a) - len(b))
}

func intOrdering(c int) Ordering {
	switch {
	case c < 0:
		return Less
	case c > 0:
		return Greater
	default:
		return Equal
	}
}

func compareNumeric(a, b Value) Ordering {
	if a.kind == KindDecimal || b.kind == KindDecimal {
		da, ea := toDecimal(a)
		db, eb := toDecimal(b)
		if ea != nil || eb != nil {
			return Incomparable
		}
		return intOrdering(da.Cmp(db))
	}
	if a.kind.IsFloat() || b.kind.IsFloat() {
		fa, _ := a.AsFloat64()
		fb, _ := b.AsFloat64()
		switch {
		case fa < fb:
			return Less
		case fa > fb:
			return Greater
		default:
			return Equal
		}
	}
	// both integer: compare exactly via big.Int to avoid float rounding.
	return intOrdering(a.toBigInt().Cmp(b.toBigInt()))
}

// Equal3 reports three-valued equality as (equal, known): Null or an
// incomparable pair makes the comparison unknown (known=false), surfaced
// as Null rather than Bool by callers.
func Equal3(a, b Value) (bool, bool) {
	c := Compare(a, b)
	if c == Incomparable {
		return false, false
	}
	return c == Equal, true
}

// And implements Kleene three-valued AND over optional bools (nil = Null).
func And(a, b *bool) *bool {
	if a != nil && !*a {
		return falsePtr()
	}
	if b != nil && !*b {
		return falsePtr()
	}
	if a == nil || b == nil {
		return nil
	}
	return truePtr()
}

// Or implements Kleene three-valued OR over optional bools (nil = Null).
func Or(a, b *bool) *bool {
	if a != nil && *a {
		return truePtr()
	}
	if b != nil && *b {
		return truePtr()
	}
	if a == nil || b == nil {
		return nil
	}
	return falsePtr()
}

// Not implements three-valued NOT; NOT Null = Null.
func Not(a *bool) *bool {
	if a == nil {
		return nil
	}
	v := !*a
	return &v
}

func truePtr() *bool  { v := true; return &v }
func falsePtr() *bool { v := false; return &v }

// ToTriBool converts a Value into the optional-bool representation used by
// the three-valued logic helpers above. Non-bool, non-null values are not
// representable and return ok=false.
func ToTriBool(v Value) (b *bool, ok bool) {
	switch v.kind {
	case KindNull:
		return nil, true
	case KindBool:
		x := v.b
		return &x, true
	default:
		return nil, false
	}
}

// FromTriBool converts the optional-bool representation back to a Value.
func FromTriBool(b *bool) Value {
	if b == nil {
		return Null()
	}
	return Bool(*b)
}
