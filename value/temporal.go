package value

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day or zone component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(y int, m time.Month, d int) Date { return Date{Year: y, Month: m, Day: d} }

func (d Date) toTime() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

func (d Date) String() string { return d.toTime().Format("2006-01-02") }

func (d Date) Compare(o Date) int {
	a, b := d.toTime(), o.toTime()
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Timestamp is a naive (zone-less) point in time, always stored normalized
// to the UTC wall-clock reading of whatever moment it represents.
type Timestamp struct {
	T time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{T: t.UTC()} }

func (t Timestamp) String() string { return t.T.Format("2006-01-02T15:04:05.999999999") }

func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case t.T.Before(o.T):
		return -1
	case t.T.After(o.T):
		return 1
	default:
		return 0
	}
}

func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range []string{
		time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("value: cannot parse %q as TIMESTAMP", s)
}

// Time is a naive time-of-day with microsecond resolution.
type Time struct {
	Hour, Min, Sec, Micro int
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Min, t.Sec, t.Micro)
}

func (t Time) Compare(o Time) int {
	a := ((t.Hour*60+t.Min)*60+t.Sec)*1_000_000 + t.Micro
	b := ((o.Hour*60+o.Min)*60+o.Sec)*1_000_000 + o.Micro
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func ParseTime(s string) (Time, error) {
	t, err := time.Parse("15:04:05.999999", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return Time{}, fmt.Errorf("value: cannot parse %q as TIME", s)
		}
	}
	return Time{Hour: t.Hour(), Min: t.Minute(), Sec: t.Second(), Micro: t.Nanosecond() / 1000}, nil
}

// IntervalUnit distinguishes the two interval storage units. An interval
// never mixes them: it is either a count of months or a count of
// microseconds, never both.
type IntervalUnit uint8

const (
	IntervalMonth IntervalUnit = iota
	IntervalMicrosecond
)

// Interval is a signed duration expressed in exactly one of its two units.
type Interval struct {
	Unit  IntervalUnit
	Count int64
}

func MonthInterval(months int64) Interval { return Interval{Unit: IntervalMonth, Count: months} }
func MicroInterval(micros int64) Interval { return Interval{Unit: IntervalMicrosecond, Count: micros} }

func (iv Interval) String() string {
	if iv.Unit == IntervalMonth {
		return fmt.Sprintf("%d MONTH", iv.Count)
	}
	return fmt.Sprintf("%d MICROSECOND", iv.Count)
}

// Add combines two intervals of the same unit. Adding intervals of
// different units fails: intervals never mix month and microsecond
// components.
func (iv Interval) Add(o Interval) (Interval, error) {
	if iv.Unit != o.Unit {
		return Interval{}, ErrIntervalUnitMismatch()
	}
	return Interval{Unit: iv.Unit, Count: iv.Count + o.Count}, nil
}

func (iv Interval) Sub(o Interval) (Interval, error) {
	if iv.Unit != o.Unit {
		return Interval{}, ErrIntervalUnitMismatch()
	}
	return Interval{Unit: iv.Unit, Count: iv.Count - o.Count}, nil
}

// Scale multiplies the interval by an integer scalar; the unit is
// unaffected by scaling.
func (iv Interval) Scale(n int64) Interval {
	return Interval{Unit: iv.Unit, Count: iv.Count * n}
}

// DivScalar divides a month-interval by n, truncating toward zero when the
// division would lose integer precision, per the documented rule in .
func (iv Interval) DivScalar(n int64) (Interval, error) {
	if n == 0 {
		return Interval{}, ErrDivisorShouldNotBeZero()
	}
	return Interval{Unit: iv.Unit, Count: iv.Count / n}, nil
}

func (iv Interval) Compare(o Interval) (int, bool) {
	if iv.Unit != o.Unit {
		return 0, false
	}
	switch {
	case iv.Count < o.Count:
		return -1, true
	case iv.Count > o.Count:
		return 1, true
	default:
		return 0, true
	}
}

// Point is a 2D point of floats; it is never usable as a Key.
type Point struct{ X, Y float64 }

func (p Point) String() string { return fmt.Sprintf("POINT(%v %v)", p.X, p.Y) }
