package domain

import (
	"errors"
	"time"
)

// DateRange is an inclusive calendar-date interval used by the
// interactive filter.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange creates a validated range; end must not precede start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, errors.New("end date cannot precede start date")
	}
	return DateRange{start: start, end: end}, nil
}

// Start returns the first included day.
func (r DateRange) Start() time.Time {
	return r.start
}

// End returns the last included day.
func (r DateRange) End() time.Time {
	return r.end
}

// Contains reports whether d falls inside the range, both ends included.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.start) && !d.After(r.end)
}

// FilterByDate returns the lines dated within [start, end]. The filter is
// idempotent: re-filtering an already filtered set with the same bounds
// returns an equal set.
func FilterByDate(lines []OrderLine, start, end time.Time) []OrderLine {
	r := DateRange{start: start, end: end}
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if r.Contains(l.Date) {
			out = append(out, l)
		}
	}
	return out
}

// DefaultBounds derives the filter bounds for a fresh dataset:
// [min(date), max(date)+1 day]. The one-day pad keeps the last day's
// orders visible in pickers that treat the upper bound as exclusive.
// ok is false for an empty dataset.
func DefaultBounds(lines []OrderLine) (start, end time.Time, ok bool) {
	if len(lines) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = lines[0].Date, lines[0].Date
	for _, l := range lines[1:] {
		if l.Date.Before(start) {
			start = l.Date
		}
		if l.Date.After(end) {
			end = l.Date
		}
	}
	return start, end.AddDate(0, 0, 1), true
}
