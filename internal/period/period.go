// Package period maps run times onto the canonical column keys of a workbook.
package period

import (
	"fmt"
	"time"
)

// Granularity is the size of the time bucket behind a Key.
type Granularity int

const (
	Daily Granularity = iota
	Weekly
)

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

const keyLayout = "2006-01-02"

// Key identifies one period column. For weekly keys Date is the first day of
// the week. Date is always midnight UTC so keys compare with ==.
type Key struct {
	Granularity Granularity
	Date        time.Time
}

// String returns the canonical YYYY-MM-DD form stored in the workbook.
func (k Key) String() string {
	return k.Date.Format(keyLayout)
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.Date.IsZero()
}

// Before reports whether k is an earlier period than other.
func (k Key) Before(other Key) bool {
	return k.Date.Before(other.Date)
}

// Resolver maps a run time onto its Key.
type Resolver struct {
	Granularity Granularity
	// Location is the time zone whose calendar decides the day. nil means UTC.
	Location *time.Location
	// WeekStart is the first day of a week for Weekly keys.
	WeekStart time.Weekday
}

// Resolve returns the key of the period containing t.
func (r Resolver) Resolve(t time.Time) Key {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	if r.Granularity == Weekly {
		offset := (int(day.Weekday()) - int(r.WeekStart) + 7) % 7
		day = day.AddDate(0, 0, -offset)
	}
	return Key{Granularity: r.Granularity, Date: day}
}

// Parse reads a key written by Key.String and checks it fits the resolver.
func (r Resolver) Parse(s string) (Key, error) {
	d, err := time.Parse(keyLayout, s)
	if err != nil {
		return Key{}, fmt.Errorf("period key %q: %w", s, err)
	}
	if r.Granularity == Weekly && d.Weekday() != r.WeekStart {
		return Key{}, fmt.Errorf("period key %q is a %s, weeks start on %s", s, d.Weekday(), r.WeekStart)
	}
	return Key{Granularity: r.Granularity, Date: d}, nil
}

// Next returns the key that follows k.
func (r Resolver) Next(k Key) Key {
	if k.Granularity == Weekly {
		return Key{Granularity: Weekly, Date: k.Date.AddDate(0, 0, 7)}
	}
	return Key{Granularity: Daily, Date: k.Date.AddDate(0, 0, 1)}
}
