// Package analytics computes summaries, breakdowns and trends from
// transaction records. Every function here is pure: callers fetch the
// transactions, analytics only groups and measures them.
package analytics

import (
	"math"
	"time"

	apperrors "campusfin/internal/errors"
)

const dayLayout = "2006-01-02"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow validates and builds a window. End must be strictly after Start.
func NewWindow(start, end time.Time) (Window, error) {
	if !end.After(start) {
		return Window{}, apperrors.ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days is the window length in whole days, rounded up. A zero-length window
// has zero days.
func (w Window) Days() int {
	if !w.End.After(w.Start) {
		return 0
	}
	return int(math.Ceil(w.End.Sub(w.Start).Hours() / 24))
}

// Previous returns the window of equal length ending where w starts.
func (w Window) Previous() Window {
	length := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-length), End: w.Start}
}

// DayStart truncates t to midnight UTC of its calendar day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as its UTC calendar date.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	u := t.UTC()
	return time.Date(u.Year(), u.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthWindow returns [first day of t's month, first day of next month).
func MonthWindow(t time.Time) Window {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
