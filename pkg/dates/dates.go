package dates

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format is the wire format for dates, ISO-8601 day precision.
const Format = "2006-01-02"

// Date is a calendar day with no time or zone component. It is comparable,
// so it can be used as a map key when grouping records by day.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime truncates a time.Time to its calendar day.
func FromTime(t time.Time) Date { return New(t.Date()) }

// Today returns the current calendar day.
func Today() Date { return New(time.Now().Date()) }

// Parse reads a Date in ISO-8601 form (2024-02-01).
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error. For tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

func (d Date) String() string { return d.time().Format(Format) }

// time returns the canonical representation of the day, midnight UTC.
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time exposes the canonical midnight-UTC instant, for DATE columns.
func (d Date) Time() time.Time { return d.time() }

// Add returns the date i days later (or earlier for negative i).
func (d Date) Add(i int) Date { return New(d.y, d.m, d.d+i) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Compare returns -1, 0 or +1 ordering d against x.
func (d Date) Compare(x Date) int {
	switch {
	case d.Before(x):
		return -1
	case d.After(x):
		return 1
	default:
		return 0
	}
}

// DaysUntil returns the number of days from d to x, negative if x is earlier.
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()) / (24 * time.Hour))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)

// Range is an inclusive range of days.
type Range struct {
	From Date
	To   Date
}

// NewRange creates an inclusive range, swapping the bounds if reversed.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains reports whether date lies within the range, boundaries included.
func (r Range) Contains(date Date) bool {
	return !date.Before(r.From) && !date.After(r.To)
}

// Days returns the number of days in the range, boundaries included.
func (r Range) Days() int { return r.From.DaysUntil(r.To) + 1 }
