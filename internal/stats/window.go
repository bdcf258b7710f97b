package stats

import "time"

// DefaultTimezone is the civil timezone venue statistics are bucketed in.
const DefaultTimezone = "America/New_York"

// Window is the closed interval of instants that feed one aggregation pass.
type Window struct {
	Start time.Time
	End   time.Time
}

// CurrentWindow returns the civil day in loc that contains now, from local
// midnight through 23:59:59.999999 of the same day. A nil loc means UTC.
func CurrentWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 23, 59, 59, 999999000, loc),
	}
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
