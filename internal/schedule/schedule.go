// Package schedule decides when each domain runs: gold every day, hotels
// once a week and flights on fixed days of the month.
package schedule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/pricesheet/internal/price"
)

// Settings are the calendar inputs shared by every domain.
type Settings struct {
	Location   *time.Location
	Hour       int
	Minute     int
	WeekStart  time.Weekday
	FlightDays []int
}

// Schedule is the run calendar of one domain. It satisfies cron.Schedule.
type Schedule struct {
	Domain   price.Domain
	Location *time.Location
	// Spec is the standard five-field cron expression of the calendar.
	Spec string

	cron cron.Schedule
}

var _ cron.Schedule = Schedule{}

// For returns the schedule of a domain.
func For(d price.Domain, s Settings) (Schedule, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	dom, dow := "*", "*"
	switch d {
	case price.DomainGold:
	case price.DomainHotel:
		dow = strconv.Itoa(int(s.WeekStart))
	case price.DomainFlight:
		if len(s.FlightDays) == 0 {
			return Schedule{}, fmt.Errorf("flight schedule needs at least one day of the month")
		}
		days := make([]string, 0, len(s.FlightDays))
		for _, n := range slices.Compact(slices.Sorted(slices.Values(s.FlightDays))) {
			days = append(days, strconv.Itoa(n))
		}
		dom = strings.Join(days, ",")
	default:
		return Schedule{}, fmt.Errorf("no schedule for domain %q", d)
	}

	spec := fmt.Sprintf("%d %d %s * %s", s.Minute, s.Hour, dom, dow)
	parsed, err := cron.ParseStandard(spec)
	if err != nil {
		return Schedule{}, fmt.Errorf("%s schedule %q: %w", d, spec, err)
	}
	// Evaluate the calendar in the configured zone whatever zone callers use.
	if ss, ok := parsed.(*cron.SpecSchedule); ok {
		ss.Location = loc
	}
	return Schedule{Domain: d, Location: loc, Spec: spec, cron: parsed}, nil
}

// Next returns the first run time strictly after t, in t's zone.
func (s Schedule) Next(t time.Time) time.Time {
	return s.cron.Next(t)
}

func (s Schedule) dayStart(t time.Time) time.Time {
	t = t.In(s.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.Location)
}

// firstRun returns the first run time on the calendar day of t, or the zero
// time when that day is not a run day.
func (s Schedule) firstRun(t time.Time) time.Time {
	start := s.dayStart(t)
	next := s.Next(start.Add(-time.Nanosecond))
	if !next.Before(start.AddDate(0, 0, 1)) {
		return time.Time{}
	}
	return next
}

// IsRunDay reports whether the calendar day of t is a run day.
func (s Schedule) IsRunDay(t time.Time) bool {
	return !s.firstRun(t).IsZero()
}

// Due reports whether now is on a run day at or after the run time.
func (s Schedule) Due(now time.Time) bool {
	run := s.firstRun(now)
	return !run.IsZero() && !now.Before(run)
}

// RunDays returns the run times in the month of t.
func (s Schedule) RunDays(t time.Time) []time.Time {
	local := t.In(s.Location)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.Location)
	end := first.AddDate(0, 1, 0)

	var days []time.Time
	for next := s.Next(first.Add(-time.Nanosecond)); next.Before(end); next = s.Next(next) {
		days = append(days, next)
	}
	return days
}

// Day is the calendar day of t in the schedule's zone, as YYYY-MM-DD.
func (s Schedule) Day(t time.Time) string {
	return t.In(s.Location).Format("2006-01-02")
}
