package fn

import (
	"time"

	"emberql/value"
)

func registerTemporal(r *Registry) {
	r.register(&Func{Name: "NOW", MinArgs: 0, MaxArgs: 0, NullTolerant: true, Call: func([]value.Value) (value.Value, error) {
		return value.TimestampVal(value.NewTimestamp(time.Now().UTC())), nil
	}})
	r.register(&Func{Name: "YEAR", MinArgs: 1, MaxArgs: 1, Call: extractFn(func(t time.Time) int64 { return int64(t.Year()) })})
	r.register(&Func{Name: "MONTH", MinArgs: 1, MaxArgs: 1, Call: extractFn(func(t time.Time) int64 { return int64(t.Month()) })})
	r.register(&Func{Name: "DAY", MinArgs: 1, MaxArgs: 1, Call: extractFn(func(t time.Time) int64 { return int64(t.Day()) })})
	r.register(&Func{Name: "HOUR", MinArgs: 1, MaxArgs: 1, Call: extractFn(func(t time.Time) int64 { return int64(t.Hour()) })})
	r.register(&Func{Name: "MINUTE", MinArgs: 1, MaxArgs: 1, Call: extractFn(func(t time.Time) int64 { return int64(t.Minute()) })})
	r.register(&Func{Name: "SECOND", MinArgs: 1, MaxArgs: 1, Call: extractFn(func(t time.Time) int64 { return int64(t.Second()) })})
}

// extractFn converts whichever temporal Kind is passed (Date, Timestamp,
// Time) to a time.Time before pulling the requested field, so YEAR/MONTH/
// DAY work uniformly across all three.
func extractFn(field func(time.Time) int64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		t, err := asTime(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.I64(field(t)), nil
	}
}

func asTime(v value.Value) (time.Time, error) {
	switch v.Kind() {
	case value.KindDate:
		d := v.DateOf()
		return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC), nil
	case value.KindTimestamp:
		return v.TimestampOf().T, nil
	case value.KindTime:
		t := v.TimeOf()
		return time.Date(0, 1, 1, t.Hour, t.Min, t.Sec, t.Micro*1000, time.UTC), nil
	default:
		return time.Time{}, &Error{Op: "IncompatibleDataType", Msg: "expected a temporal argument"}
	}
}

// ParseInterval builds an Interval Value from the literal string and unit
// carried by an ExprInterval node.
func ParseInterval(literal string, unit value.IntervalUnit) (value.Value, error) {
	n, err := parseIntervalCount(literal)
	if err != nil {
		return value.Value{}, err
	}
	if unit == value.IntervalMonth {
		return value.IntervalVal(value.MonthInterval(n)), nil
	}
	return value.IntervalVal(value.MicroInterval(n)), nil
}

func parseIntervalCount(s string) (int64, error) {
	var n int64
	neg := false
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	if i == len(s) {
		return 0, &Error{Op: "InvalidIntervalLiteral", Msg: s}
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, &Error{Op: "InvalidIntervalLiteral", Msg: s}
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
