// Package planning implements the scheduling core: fitting stage
// durations onto the shift calendar, inferring changeover setup time,
// chaining route stages into a task plan, and splitting a requested
// quantity into independently planned lots.
//
// All operations are synchronous computations over a snapshot read
// through domain.PlanningStore; the package holds no locks and
// guarantees nothing against concurrent writers.
package planning

import (
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/app/calendar"
)

// PreferredWindow is the day window operators prefer to work in.
// Stage windows are first fitted here regardless of shift membership.
type PreferredWindow struct {
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	BreakStart time.Duration `json:"break_start"`
	BreakEnd   time.Duration `json:"break_end"`
}

// DefaultPreferredWindow returns the standard 08:00–17:00 window with
// a 12:00–13:00 break.
func DefaultPreferredWindow() PreferredWindow {
	return PreferredWindow{
		Start:      8 * time.Hour,
		End:        17 * time.Hour,
		BreakStart: 12 * time.Hour,
		BreakEnd:   13 * time.Hour,
	}
}

// StageWindow is the placement the duration planner computed for one
// stage. Shift is nil when the stage fits the preferred window.
//
// DeferredToNextShift is true when the stage did not fit the remaining
// time of its shift and was pushed whole to the next shift's start.
// The stage is deferred, never divided; the JSON name keeps the wire
// compatibility of the historical flag.
type StageWindow struct {
	Start               time.Time       `json:"start"`
	End                 time.Time       `json:"end"`
	Shift               *calendar.Shift `json:"shift,omitempty"`
	DeferredToNextShift bool            `json:"split_across_shifts"`
}

// WindowPlanner walks the shift calendar to turn (start, required
// duration) into an actual wall-clock window.
type WindowPlanner struct {
	cal  *calendar.Calendar
	pref PreferredWindow
}

// NewWindowPlanner creates a duration planner over the calendar.
func NewWindowPlanner(cal *calendar.Calendar, pref PreferredWindow) *WindowPlanner {
	return &WindowPlanner{cal: cal, pref: pref}
}

// PlanStageWindow places a stage of the required duration at or after
// requestedStart:
//
//  1. fit entirely inside the preferred window if possible,
//  2. else fit into the remaining time of the current shift,
//  3. else defer whole to the start of the next shift in cyclic order,
//  4. and when no shift covers requestedStart at all, default to the
//     next day's first-shift start.
func (p *WindowPlanner) PlanStageWindow(requestedStart time.Time, required time.Duration) StageWindow {
	if p.fitsPreferred(requestedStart, required) {
		end := endWithBreak(requestedStart, required, p.pref.BreakStart, p.pref.BreakEnd)
		return StageWindow{Start: requestedStart, End: end}
	}
	return p.shiftWindow(requestedStart, required)
}

func (p *WindowPlanner) fitsPreferred(start time.Time, required time.Duration) bool {
	tod := calendar.TimeOfDay(start)
	if tod < p.pref.Start || tod > p.pref.End {
		return false
	}
	end := endWithBreak(start, required, p.pref.BreakStart, p.pref.BreakEnd)
	return calendar.TimeOfDay(end) <= p.pref.End
}

func (p *WindowPlanner) shiftWindow(start time.Time, required time.Duration) StageWindow {
	shift, ok := p.cal.ShiftFor(start)
	if !ok {
		// No shift covers this instant: start fresh on the next day's
		// first shift.
		first, _ := p.cal.ByType(calendar.First)
		s := calendar.StartOfDay(start).AddDate(0, 0, 1).Add(first.Start)
		return StageWindow{Start: s, End: s.Add(required), Shift: &first}
	}

	available := p.cal.EndOn(start, shift).Sub(start)
	if calendar.TimeOfDay(start) < shift.BreakEnd {
		// The shift's break has not elapsed yet; it consumes capacity.
		available -= shift.BreakEnd - shift.BreakStart
	}

	if available >= required {
		end := endWithBreak(start, required, shift.BreakStart, shift.BreakEnd)
		return StageWindow{Start: start, End: end, Shift: &shift}
	}

	next := p.cal.Next(shift)
	ns := p.cal.NextShiftStart(start, next)
	return StageWindow{Start: ns, End: ns.Add(required), Shift: &next, DeferredToNextShift: true}
}

// endWithBreak computes start + required, padded by one break length
// when the naive interval spans the whole break. The padding is added
// at most once per call.
func endWithBreak(start time.Time, required time.Duration, breakStart, breakEnd time.Duration) time.Time {
	end := start.Add(required)
	if calendar.TimeOfDay(start) < breakStart && calendar.TimeOfDay(end) > breakEnd {
		end = end.Add(breakEnd - breakStart)
	}
	return end
}
