// Package window computes the trailing 12-calendar-month reporting window.
package window

import (
	"fmt"
	"time"
	_ "time/tzdata" // report timezone must resolve on hosts without zoneinfo

	dErrors "complaintdesk/pkg/domain-errors"
)

// Size is the number of months in every monthly series.
const Size = 12

const keyLayout = "2006-01"

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t, read in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(keyLayout, s)
	if err != nil {
		return Month{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid month %q, expected YYYY-MM", s))
	}
	return MonthOf(t), nil
}

// Key renders the month as YYYY-MM.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Add moves n months forward (or back when n is negative), wrapping years.
func (m Month) Add(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	year, month := idx/12, idx%12
	if month < 0 {
		month += 12
		year--
	}
	return Month{Year: year, Month: time.Month(month + 1)}
}

// First is 00:00:00 on the first day of the month in loc.
func (m Month) First(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Last is 23:59:59 on the last day of the month in loc.
func (m Month) Last(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month+1, 0, 23, 59, 59, 0, loc)
}

// Window is an inclusive range of Size consecutive months.
type Window struct {
	Months []Month
	Start  time.Time
	End    time.Time
	loc    *time.Location
}

// Trailing returns the Size months ending with end, oldest first.
func Trailing(end Month, loc *time.Location) Window {
	months := make([]Month, Size)
	for i := range months {
		months[i] = end.Add(i - (Size - 1))
	}
	return Window{
		Months: months,
		Start:  months[0].First(loc),
		End:    end.Last(loc),
		loc:    loc,
	}
}

// Resolve builds the window for an optional YYYY-MM end month. An empty value
// means the month containing now.
func Resolve(endMonth string, now time.Time, loc *time.Location) (Window, error) {
	if endMonth == "" {
		return Trailing(MonthOf(now.In(loc)), loc), nil
	}
	m, err := ParseMonth(endMonth)
	if err != nil {
		return Window{}, err
	}
	return Trailing(m, loc), nil
}

// Keys lists the month keys in order.
func (w Window) Keys() []string {
	keys := make([]string, len(w.Months))
	for i, m := range w.Months {
		keys[i] = m.Key()
	}
	return keys
}

// Location is the zone the window boundaries are expressed in.
func (w Window) Location() *time.Location {
	return w.loc
}

// Contains reports whether t lies within [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Index returns the bucket position for t, or false when t is outside the window.
func (w Window) Index(t time.Time) (int, bool) {
	if !w.Contains(t) {
		return 0, false
	}
	m := MonthOf(t.In(w.loc))
	first := w.Months[0]
	i := (m.Year-first.Year)*12 + int(m.Month) - int(first.Month)
	if i < 0 || i >= len(w.Months) {
		return 0, false
	}
	return i, true
}

// LoadLocation resolves the reporting timezone.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load report timezone %q: %w", name, err)
	}
	return loc, nil
}
