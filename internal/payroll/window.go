// Package payroll turns recorded work sessions into monthly salary figures.
//
// All arithmetic is decimal. Hours of clock and time range entries are
// rounded to whole hours per session, and again on the task subtotal when the
// task mixes in any such entry. Task subtotals always bill at the task rate,
// while itemized session lines honour a session-level rate override.
package payroll

import (
	"fmt"
	"time"

	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

// Window is the closed interval of instants belonging to one calendar month.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the window from the first instant of the month up to one
// microsecond before the first instant of the following month, in loc.
func MonthWindow(year, month int, loc *time.Location) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < 1 || year > 9999 {
		return Window{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("year out of range: %d", year))
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Microsecond)
	return Window{Start: start, End: end}, nil
}

// WindowFor returns the month window containing t.
func WindowFor(t time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	w, _ := MonthWindow(local.Year(), int(local.Month()), loc)
	return w
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Label renders the window as "Month Year".
func (w Window) Label() string {
	return w.Start.Format("January 2006")
}

// Year returns the calendar year of the window start.
func (w Window) Year() int { return w.Start.Year() }

// Month returns the calendar month (1-12) of the window start.
func (w Window) Month() int { return int(w.Start.Month()) }
