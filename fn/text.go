package fn

import (
	"regexp"
	"strings"

	"emberql/value"
)

func registerText(r *Registry) {
	r.register(&Func{Name: "CONCAT", MinArgs: 0, MaxArgs: -1, NullTolerant: true, Call: concatFn})
	r.register(&Func{Name: "UPPER", MinArgs: 1, MaxArgs: 1, Call: unaryText(strings.ToUpper)})
	r.register(&Func{Name: "LOWER", MinArgs: 1, MaxArgs: 1, Call: unaryText(strings.ToLower)})
	r.register(&Func{Name: "LEFT", MinArgs: 2, MaxArgs: 2, Call: leftFn})
	r.register(&Func{Name: "RIGHT", MinArgs: 2, MaxArgs: 2, Call: rightFn})
	r.register(&Func{Name: "LPAD", MinArgs: 2, MaxArgs: 3, Call: padFn(true)})
	r.register(&Func{Name: "RPAD", MinArgs: 2, MaxArgs: 3, Call: padFn(false)})
	r.register(&Func{Name: "TRIM", MinArgs: 1, MaxArgs: 2, Call: trimFn(true, true)})
	r.register(&Func{Name: "LTRIM", MinArgs: 1, MaxArgs: 2, Call: trimFn(true, false)})
	r.register(&Func{Name: "RTRIM", MinArgs: 1, MaxArgs: 2, Call: trimFn(false, true)})
	r.register(&Func{Name: "REVERSE", MinArgs: 1, MaxArgs: 1, Call: reverseFn})
	r.register(&Func{Name: "REPEAT", MinArgs: 2, MaxArgs: 2, Call: repeatFn})
	r.register(&Func{Name: "SUBSTR", MinArgs: 2, MaxArgs: 3, Call: substrFn})
	r.register(&Func{Name: "SUBSTRING", MinArgs: 2, MaxArgs: 3, Call: substrFn})
	r.register(&Func{Name: "POSITION", MinArgs: 2, MaxArgs: 2, Call: positionFn})
	r.register(&Func{Name: "REGEXP_LIKE", MinArgs: 2, MaxArgs: 2, Call: regexpLikeFn})
	r.register(&Func{Name: "REGEXP_REPLACE", MinArgs: 3, MaxArgs: 3, Call: regexpReplaceFn})
}

func concatFn(args []value.Value) (value.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		if a.IsNull() {
			return value.Null(), nil
		}
		sb.WriteString(a.String())
	}
	return value.Text(sb.String()), nil
}

func unaryText(f func(string) string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		return value.Text(f(args[0].TextOf())), nil
	}
}

func leftFn(args []value.Value) (value.Value, error) {
	s := []rune(args[0].TextOf())
	n, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(s)) {
		n = int64(len(s))
	}
	return value.Text(string(s[:n])), nil
}

func rightFn(args []value.Value) (value.Value, error) {
	s := []rune(args[0].TextOf())
	n, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(s)) {
		n = int64(len(s))
	}
	return value.Text(string(s[int64(len(s))-n:])), nil
}

func padFn(left bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		s := []rune(args[0].TextOf())
		n, err := intArg(args[1])
		if err != nil {
			return value.Value{}, err
		}
		pad := " "
		if len(args) == 3 {
			pad = args[2].TextOf()
		}
		if pad == "" || n < 0 {
			return value.Text(string(s)), nil
		}
		if int64(len(s)) >= n {
			if left {
				return value.Text(string(s[int64(len(s))-n:])), nil
			}
			return value.Text(string(s[:n])), nil
		}
		padRunes := []rune(pad)
		var fill []rune
		for int64(len(fill)) < n-int64(len(s)) {
			fill = append(fill, padRunes...)
		}
		fill = fill[:n-int64(len(s))]
		if left {
			return value.Text(string(fill) + string(s)), nil
		}
		return value.Text(string(s) + string(fill)), nil
	}
}

// trimFn implements TRIM(BOTH|LEADING|TRAILING 'chars' FROM s) as the
// two-argument form TRIM(s[, chars]); leading/trailing selects which
// sides the default call trims.
func trimFn(leading, trailing bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		s := args[0].TextOf()
		cut := " "
		if len(args) == 2 {
			cut = args[1].TextOf()
		}
		switch {
		case leading && trailing:
			return value.Text(strings.Trim(s, cut)), nil
		case leading:
			return value.Text(strings.TrimLeft(s, cut)), nil
		default:
			return value.Text(strings.TrimRight(s, cut)), nil
		}
	}
}

func reverseFn(args []value.Value) (value.Value, error) {
	r := []rune(args[0].TextOf())
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return value.Text(string(r)), nil
}

func repeatFn(args []value.Value) (value.Value, error) {
	n, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if n < 0 {
		n = 0
	}
	return value.Text(strings.Repeat(args[0].TextOf(), int(n))), nil
}

func substrFn(args []value.Value) (value.Value, error) {
	s := []rune(args[0].TextOf())
	start, err := intArg(args[1])
	if err != nil {
		return value.Value{}, err
	}
	// SQL SUBSTR is 1-indexed; negative start counts from the end.
	var from int64
	if start > 0 {
		from = start - 1
	} else if start < 0 {
		from = int64(len(s)) + start
		if from < 0 {
			from = 0
		}
	}
	if from > int64(len(s)) {
		from = int64(len(s))
	}
	length := int64(len(s)) - from
	if len(args) == 3 {
		l, err := intArg(args[2])
		if err != nil {
			return value.Value{}, err
		}
		if l < 0 {
			l = 0
		}
		if l < length {
			length = l
		}
	}
	return value.Text(string(s[from : from+length])), nil
}

func positionFn(args []value.Value) (value.Value, error) {
	idx := strings.Index(args[1].TextOf(), args[0].TextOf())
	if idx < 0 {
		return value.I64(0), nil
	}
	return value.I64(int64(len([]rune(args[1].TextOf()[:idx]))) + 1), nil
}

func regexpLikeFn(args []value.Value) (value.Value, error) {
	re, err := regexp.Compile(args[1].TextOf())
	if err != nil {
		return value.Value{}, &Error{Op: "InvalidRegexp", Msg: err.Error()}
	}
	return value.Bool(re.MatchString(args[0].TextOf())), nil
}

func regexpReplaceFn(args []value.Value) (value.Value, error) {
	re, err := regexp.Compile(args[1].TextOf())
	if err != nil {
		return value.Value{}, &Error{Op: "InvalidRegexp", Msg: err.Error()}
	}
	return value.Text(re.ReplaceAllString(args[0].TextOf(), args[2].TextOf())), nil
}

func intArg(v value.Value) (int64, error) {
	i, err := value.Cast(v, value.KindI64)
	if err != nil {
		return 0, err
	}
	n, _ := i.Int128Of().Int64()
	return n, nil
}

// Like implements LIKE/ILIKE with `%`/`_` wildcards and no escape
// character, via a translated regexp.
func Like(l, r value.Value, insensitive bool) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.Null(), nil
	}
	pattern := likeToRegexp(r.TextOf(), insensitive)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value.Value{}, &Error{Op: "InvalidLikePattern", Msg: err.Error()}
	}
	return value.Bool(re.MatchString(l.TextOf())), nil
}

func likeToRegexp(pattern string, insensitive bool) string {
	var sb strings.Builder
	sb.WriteString("^")
	if insensitive {
		sb.WriteString("(?i)")
	}
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}
