// Package calendar implements the multi-shift work calendar.
// It maps instants to shift membership, computes working hours net of
// breaks, and anchors shift windows onto concrete dates. The standard
// three-shift configuration is intentionally irregular (the windows do
// not tile a 24h day); it is kept as data so a corrected calendar can
// be substituted without code changes.
package calendar

import "time"

// ShiftType identifies one of the three recurring daily shifts.
type ShiftType int

const (
	First ShiftType = iota + 1
	Second
	Third
)

// String returns a human-readable shift label.
func (st ShiftType) String() string {
	switch st {
	case First:
		return "FIRST"
	case Second:
		return "SECOND"
	case Third:
		return "THIRD"
	default:
		return "UNKNOWN"
	}
}

// Shift is one recurring daily work window with a break. Start, End,
// BreakStart and BreakEnd are offsets from midnight.
type Shift struct {
	ID         int           `json:"id"`
	Type       ShiftType     `json:"type"`
	Name       string        `json:"name"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	BreakStart time.Duration `json:"break_start"`
	BreakEnd   time.Duration `json:"break_end"`

	// RunsToMidnight marks a shift whose effective window extends from
	// Start to the following midnight regardless of End.
	RunsToMidnight bool `json:"runs_to_midnight,omitempty"`

	// WorkingHoursOverride, when positive, replaces (End − Start) in the
	// working-hours computation. The standard second shift carries a 9h
	// override inherited from the legacy configuration.
	WorkingHoursOverride float64 `json:"working_hours_override,omitempty"`
}

// morningRollover: when the next shift in cyclic order is the first
// shift and the clock is already past this offset, the first shift
// start is taken on the following day.
const morningRollover = 6 * time.Hour

// StandardShifts returns the canonical three-shift configuration.
// The windows are irregular on purpose (gaps between 04:00–08:00 and
// 21:00–01:00 are not covered); downstream planning treats instants
// outside every shift by deferring to the next day's first shift.
func StandardShifts() []Shift {
	return []Shift{
		{
			ID:         1,
			Type:       First,
			Name:       "1st shift",
			Start:      8 * time.Hour,
			End:        17 * time.Hour,
			BreakStart: 12 * time.Hour,
			BreakEnd:   13 * time.Hour,
		},
		{
			ID:                   2,
			Type:                 Second,
			Name:                 "2nd shift",
			Start:                17 * time.Hour,
			End:                  21 * time.Hour,
			BreakStart:           22 * time.Hour,
			BreakEnd:             1 * time.Hour,
			RunsToMidnight:       true,
			WorkingHoursOverride: 9,
		},
		{
			ID:         3,
			Type:       Third,
			Name:       "3rd shift",
			Start:      1 * time.Hour,
			End:        4 * time.Hour,
			BreakStart: 5 * time.Hour,
			BreakEnd:   8 * time.Hour,
		},
	}
}

// Calendar answers shift-membership and time-arithmetic questions for
// a fixed set of shifts. It has no dependencies and no mutable state.
type Calendar struct {
	shifts []Shift
}

// New creates a calendar over the given shifts, in the given cyclic order.
func New(shifts []Shift) *Calendar {
	cp := make([]Shift, len(shifts))
	copy(cp, shifts)
	return &Calendar{shifts: cp}
}

// Standard returns a calendar over the canonical three shifts.
func Standard() *Calendar {
	return New(StandardShifts())
}

// Shifts returns the configured shifts in cyclic order.
func (c *Calendar) Shifts() []Shift {
	cp := make([]Shift, len(c.shifts))
	copy(cp, c.shifts)
	return cp
}

// IsInShift reports whether the instant's time-of-day falls inside the
// shift's window. A RunsToMidnight shift accepts anything from its
// start up to (and including) midnight.
func (c *Calendar) IsInShift(s Shift, t time.Time) bool {
	tod := TimeOfDay(t)
	if s.RunsToMidnight {
		return tod >= s.Start || tod == 0
	}
	return tod >= s.Start && tod <= s.End
}

// ShiftFor returns the first shift containing the instant, in cyclic
// order, or false if no configured shift covers it.
func (c *Calendar) ShiftFor(t time.Time) (Shift, bool) {
	for _, s := range c.shifts {
		if c.IsInShift(s, t) {
			return s, true
		}
	}
	return Shift{}, false
}

// WorkingHours returns the shift's net working hours: the window length
// (or the configured override) minus the break length. The arithmetic
// is applied verbatim to whatever windows are configured, including
// the legacy ones where the break lies outside the window.
func (c *Calendar) WorkingHours(s Shift) float64 {
	total := (s.End - s.Start).Hours()
	if s.WorkingHoursOverride > 0 {
		total = s.WorkingHoursOverride
	}
	return total - (s.BreakEnd - s.BreakStart).Hours()
}

// NextWorkingInstant returns break-end on the same date when the
// instant falls inside the shift's break window, and the instant
// unchanged otherwise.
func (c *Calendar) NextWorkingInstant(s Shift, t time.Time) time.Time {
	tod := TimeOfDay(t)
	if tod >= s.BreakStart && tod <= s.BreakEnd {
		return StartOfDay(t).Add(s.BreakEnd)
	}
	return t
}

// Next returns the shift following s in cyclic order.
func (c *Calendar) Next(s Shift) Shift {
	for i, cur := range c.shifts {
		if cur.ID == s.ID {
			return c.shifts[(i+1)%len(c.shifts)]
		}
	}
	return c.shifts[0]
}

// ByType returns the first configured shift of the given type.
func (c *Calendar) ByType(st ShiftType) (Shift, bool) {
	for _, s := range c.shifts {
		if s.Type == st {
			return s, true
		}
	}
	return Shift{}, false
}

// StartOn anchors the shift's start on the instant's date.
func (c *Calendar) StartOn(t time.Time, s Shift) time.Time {
	return StartOfDay(t).Add(s.Start)
}

// EndOn anchors the shift's end on the instant's date. A
// RunsToMidnight shift ends at the following midnight.
func (c *Calendar) EndOn(t time.Time, s Shift) time.Time {
	if s.RunsToMidnight {
		return StartOfDay(t).AddDate(0, 0, 1)
	}
	return StartOfDay(t).Add(s.End)
}

// NextShiftStart returns the concrete instant at which the given next
// shift starts, relative to the current instant. The first shift rolls
// to the following day once the morning is past; the third shift
// always starts on the following day.
func (c *Calendar) NextShiftStart(t time.Time, next Shift) time.Time {
	day := StartOfDay(t)
	switch {
	case next.Type == First && TimeOfDay(t) > morningRollover:
		return day.AddDate(0, 0, 1).Add(next.Start)
	case next.Type == Third:
		return day.AddDate(0, 0, 1).Add(next.Start)
	default:
		return day.Add(next.Start)
	}
}

// TimeOfDay returns the instant's offset from its midnight.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// StartOfDay returns midnight on the instant's date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
