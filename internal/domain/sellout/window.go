package sellout

import (
	"fmt"
	"strings"
	"time"
)

// Window is a reporting period, inclusive on both ends
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Months returns the first instant of every calendar month the window touches
func (w Window) Months() []time.Time {
	if w.End.Before(w.Start) {
		return nil
	}
	var months []time.Time
	m := firstOfMonth(w.Start)
	for !m.After(w.End) {
		months = append(months, m)
		m = m.AddDate(0, 1, 0)
	}
	return months
}

// EndDay returns the single-day window covering the last day of w
func (w Window) EndDay() Window {
	return Window{Start: startOfDay(w.End), End: w.End}
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
}

// Windows pairs the current period with its comparison period
type Windows struct {
	Current    Window `json:"current"`
	Comparison Window `json:"comparison"`
}

// ComparisonMode selects how the comparison window is derived from the current one
type ComparisonMode string

const (
	// ComparisonShiftOneMonth keeps the day-of-month bounds one calendar month back
	ComparisonShiftOneMonth ComparisonMode = "shift"
	// ComparisonPreviousCalendarMonth covers the whole month before the current window starts
	ComparisonPreviousCalendarMonth ComparisonMode = "calendar"
)

// ParseComparisonMode accepts "shift" or "calendar"; empty yields def
func ParseComparisonMode(s string, def ComparisonMode) (ComparisonMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "shift", "lmtd":
		return ComparisonShiftOneMonth, nil
	case "calendar", "previous_month":
		return ComparisonPreviousCalendarMonth, nil
	default:
		return "", ErrInvalidParameter.WithMessage("comparison must be one of: shift, calendar")
	}
}

// WindowResolver computes reporting windows in a fixed location
type WindowResolver struct {
	Location *time.Location
	Now      func() time.Time
}

// NewWindowResolver creates a resolver using the wall clock
func NewWindowResolver(loc *time.Location) *WindowResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &WindowResolver{Location: loc, Now: time.Now}
}

// Resolve builds the current and comparison windows. Explicit bounds are
// whole days; end is extended to the last instant of its day.
func (r *WindowResolver) Resolve(start, end *time.Time, mode ComparisonMode) (Windows, error) {
	now := r.now()

	var current Window
	switch {
	case start != nil && end != nil:
		current = Window{Start: startOfDay(start.In(r.loc())), End: endOfDay(end.In(r.loc()))}
	case start != nil:
		current = Window{Start: startOfDay(start.In(r.loc())), End: now}
	case end != nil:
		e := endOfDay(end.In(r.loc()))
		current = Window{Start: firstOfMonth(e), End: e}
	default:
		current = Window{Start: firstOfMonth(now), End: now}
	}

	if current.Start.After(current.End) {
		return Windows{}, ErrInvalidRange.WithMessage(fmt.Sprintf(
			"start date %s is after end date %s",
			current.Start.Format(time.DateOnly), current.End.Format(time.DateOnly)))
	}

	comparison, err := ComparisonWindow(current, mode)
	if err != nil {
		return Windows{}, err
	}
	return Windows{Current: current, Comparison: comparison}, nil
}

// ComparisonWindow derives the comparison period for current
func ComparisonWindow(current Window, mode ComparisonMode) (Window, error) {
	switch mode {
	case ComparisonShiftOneMonth, "":
		return Window{
			Start: shiftMonths(current.Start, -1),
			End:   shiftMonths(current.End, -1),
		}, nil
	case ComparisonPreviousCalendarMonth:
		first := firstOfMonth(current.Start).AddDate(0, -1, 0)
		return Window{Start: first, End: endOfDay(lastOfMonth(first))}, nil
	default:
		return Window{}, ErrInvalidParameter.WithMessage("unknown comparison mode " + string(mode))
	}
}

// ParseDateParam parses an ISO date (YYYY-MM-DD) or RFC3339 timestamp in loc
func ParseDateParam(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(loc)
		return &t, nil
	}
	return nil, ErrMalformedDate.WithMessage(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
}

func (r *WindowResolver) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r *WindowResolver) now() time.Time {
	if r.Now == nil {
		return time.Now().In(r.loc())
	}
	return r.Now().In(r.loc())
}

// shiftMonths moves t by n calendar months keeping the time of day.
// The day is clamped to the length of the target month, so 31 March
// shifts back to 29 February in a leap year.
func shiftMonths(t time.Time, n int) time.Time {
	target := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := lastOfMonth(target).Day(); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func lastOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, -1)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
