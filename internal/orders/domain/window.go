package domain

import "time"

// TimeWindow is one of the four fixed trailing comparison periods. They
// are measured from an explicit "now" so tests can pin the clock, and
// they compound with (not replace) the interactive date filter.
type TimeWindow int

const (
	WindowAll TimeWindow = iota
	WindowLast30Days
	WindowLast13Weeks
	WindowLast52Weeks
)

// Windows returns the four trailing windows in display order.
func Windows() []TimeWindow {
	return []TimeWindow{WindowAll, WindowLast30Days, WindowLast13Weeks, WindowLast52Weeks}
}

// Label returns the window's display name.
func (w TimeWindow) Label() string {
	switch w {
	case WindowLast30Days:
		return "Past 30 days"
	case WindowLast13Weeks:
		return "Past 13 weeks"
	case WindowLast52Weeks:
		return "Past 52 weeks"
	default:
		return "All to date"
	}
}

// Start returns the window's open lower bound relative to now. ok is
// false for WindowAll, which has no lower bound.
func (w TimeWindow) Start(now time.Time) (time.Time, bool) {
	switch w {
	case WindowLast30Days:
		return now.AddDate(0, 0, -30), true
	case WindowLast13Weeks:
		return now.AddDate(0, 0, -13*7), true
	case WindowLast52Weeks:
		return now.AddDate(0, 0, -52*7), true
	default:
		return time.Time{}, false
	}
}

// Contains reports whether d falls in the window: start < d <= now,
// half-open on the left.
func (w TimeWindow) Contains(now, d time.Time) bool {
	if d.After(now) {
		return false
	}
	start, bounded := w.Start(now)
	if !bounded {
		return true
	}
	return d.After(start)
}

// Apply returns the lines whose dates fall in the window at now.
func (w TimeWindow) Apply(lines []OrderLine, now time.Time) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if w.Contains(now, l.Date) {
			out = append(out, l)
		}
	}
	return out
}
