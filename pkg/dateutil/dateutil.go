package dateutil

import (
	"fmt"
	"time"
)

// Layout is the only wire format for calendar dates.
const Layout = "2006-01-02"

// Date is a civil calendar date with no time-of-day and no timezone.
//
// The zero value is "no date"; check with IsZero().
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse parses a "YYYY-MM-DD" string strictly.
//
// time.Parse alone is too forgiving (it accepts "2024-1-8"), so the parsed
// value is re-rendered and compared against the input. Anything that does not
// round-trip byte-for-byte is rejected.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	d := FromTime(t)
	if d.String() != s {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// FromTime truncates a time.Time to its civil date (in t's location).
func FromTime(t time.Time) Date {
	y, m, day := t.Date()
	return Date{Year: y, Month: m, Day: day}
}

// Today returns the current civil date in local time.
func Today() Date { return FromTime(time.Now()) }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return d.toTime().Format(Layout)
}

// toTime anchors the date at UTC midnight, which keeps day arithmetic exact
// (no DST edges).
func (d Date) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.toTime().AddDate(0, 0, n))
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.toTime().Weekday() }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.toTime().Before(o.toTime()) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.toTime().After(o.toTime()) }

// Compare returns -1, 0 or +1 comparing d against o chronologically.
func (d Date) Compare(o Date) int {
	return d.toTime().Compare(o.toTime())
}

// MarshalText implements encoding.TextMarshaler ("YYYY-MM-DD").
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler with strict parsing.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
