package types

import (
	"fmt"
	"time"
)

// dateLayout is the canonical calendar-date representation used everywhere
// in the engine. Dates carry no time component; window comparisons are done
// on whole days at UTC midnight so boundaries never shift with time-of-day.
const dateLayout = "2006-01-02"

// Date is a calendar date (year, month, day) with no time component.
type Date struct {
	t time.Time
}

// ParseDate parses an ISO date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// String returns the date in ISO form (YYYY-MM-DD).
func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// DaysSince returns the number of whole days from o to d (negative when d
// precedes o).
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t) / (24 * time.Hour))
}

// DaysApart returns the absolute number of whole days between two dates.
func (d Date) DaysApart(o Date) int {
	days := d.DaysSince(o)
	if days < 0 {
		return -days
	}
	return days
}

// Before reports whether d precedes o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// MarshalYAML encodes the date as an ISO string.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML decodes an ISO date string.
func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the date as a quoted ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted ISO date string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
