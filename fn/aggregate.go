package fn

import (
	"math"

	"emberql/value"
)

// Accumulator folds one aggregate function's state across a group's rows.
// Finish is called once after the group is fully scanned.
type Accumulator interface {
	Accumulate(arg value.Value, isWildcard bool) error
	Finish() value.Value
}

// NewAccumulator returns a fresh accumulator for the named aggregate
// function. Unknown names are a caller bug,
// not a runtime error surface — the planner/translator should already
// have rejected them as an unsupported function call.
func NewAccumulator(name string) Accumulator {
	switch name {
	case "COUNT":
		return &countAcc{}
	case "SUM":
		return &sumAcc{}
	case "AVG":
		return &avgAcc{}
	case "MIN":
		return &extremumAcc{wantMax: false}
	case "MAX":
		return &extremumAcc{wantMax: true}
	case "VARIANCE":
		return &varianceAcc{sample: true}
	case "STDEV":
		return &varianceAcc{sample: true, stddev: true}
	default:
		return nil
	}
}

type countAcc struct{ n int64 }

func (a *countAcc) Accumulate(v value.Value, wildcard bool) error {
	if wildcard || !v.IsNull() {
		a.n++
	}
	return nil
}
func (a *countAcc) Finish() value.Value { return value.I64(a.n) }

type sumAcc struct {
	sum value.Value
}

func (a *sumAcc) Accumulate(v value.Value, _ bool) error {
	if v.IsNull() {
		return nil
	}
	if !a.sum.IsNull() {
		s, err := value.Add(a.sum, v)
		if err != nil {
			return err
		}
		a.sum = s
		return nil
	}
	a.sum = v
	return nil
}

func (a *sumAcc) Finish() value.Value {
	if a.sum.IsNull() {
		return value.Null()
	}
	return a.sum
}

type avgAcc struct {
	sum   float64
	count int64
}

func (a *avgAcc) Accumulate(v value.Value, _ bool) error {
	if v.IsNull() {
		return nil
	}
	f, ok := v.AsFloat64()
	if !ok {
		return &Error{Op: "IncompatibleDataType", Msg: "AVG requires numeric values"}
	}
	a.sum += f
	a.count++
	return nil
}

func (a *avgAcc) Finish() value.Value {
	if a.count == 0 {
		return value.Null()
	}
	return value.F64(a.sum / float64(a.count))
}

type extremumAcc struct {
	wantMax bool
	have    bool
	cur     value.Value
}

func (a *extremumAcc) Accumulate(v value.Value, _ bool) error {
	if v.IsNull() {
		return nil
	}
	if !a.have {
		a.cur, a.have = v, true
		return nil
	}
	ord := value.Compare(v, a.cur)
	if (a.wantMax && ord == value.Greater) || (!a.wantMax && ord == value.Less) {
		a.cur = v
	}
	return nil
}

func (a *extremumAcc) Finish() value.Value {
	if !a.have {
		return value.Null()
	}
	return a.cur
}

// varianceAcc computes the sample variance via Welford's online update.
type varianceAcc struct {
	sample bool
	stddev bool
	n      int64
	mean   float64
	m2     float64
}

func (a *varianceAcc) Accumulate(v value.Value, _ bool) error {
	if v.IsNull() {
		return nil
	}
	f, ok := v.AsFloat64()
	if !ok {
		return &Error{Op: "IncompatibleDataType", Msg: "VARIANCE/STDEV require numeric values"}
	}
	a.n++
	delta := f - a.mean
	a.mean += delta / float64(a.n)
	delta2 := f - a.mean
	a.m2 += delta * delta2
	return nil
}

func (a *varianceAcc) Finish() value.Value {
	if a.n < 2 {
		return value.Null()
	}
	variance := a.m2 / float64(a.n-1)
	if a.stddev {
		return value.F64(math.Sqrt(variance))
	}
	return value.F64(variance)
}
