// Package alternatives implements machine conflict detection and
// alternative-machine ranking.
//
// Conflicts are detected over half-open windows: boundary-touching
// commitments do not conflict. Ranking is a heuristic (free machines
// first, then lighter daily load), not an optimal reassignment.
package alternatives

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// availableNowBonus dominates the ranking: a machine free at the
// requested instant always outranks a busy one.
const availableNowBonus = -100

// loadWeight scales the daily-load factor into the priority score.
const loadWeight = 50

// Window is a proposed half-open booking window [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Conflict describes an overlap between a proposed assignment and the
// earliest-starting existing commitment on the same machine.
type Conflict struct {
	RouteStage       domain.RouteStage `json:"route_stage"`
	Machine          domain.Machine    `json:"machine"`
	ConflictTime     time.Time         `json:"conflict_time"`
	ConflictingStage domain.TaskStage  `json:"conflicting_stage"`

	// SuggestedWait is how long the proposed start would have to slip
	// to clear the earliest conflicting commitment.
	SuggestedWait time.Duration `json:"suggested_wait"`
}

// MachineAlternative is one candidate machine with its availability
// and ranking score. Lower Priority is better.
type MachineAlternative struct {
	Machine           domain.Machine `json:"machine"`
	Available         bool           `json:"available"`
	EarliestAvailable time.Time      `json:"earliest_available"`
	LoadFactor        float64        `json:"load_factor"`
	Priority          int            `json:"priority"`
}

// StageBooking is a tentative machine+window assignment to check.
type StageBooking struct {
	RouteStage domain.RouteStage `json:"route_stage"`
	Machine    domain.Machine    `json:"machine"`
	Window     Window            `json:"window"`
}

// ConflictAnalysis is the per-request result: detected conflicts plus
// ranked alternatives for each conflicted stage. Ephemeral.
type ConflictAnalysis struct {
	HasConflicts bool                 `json:"has_conflicts"`
	Conflicts    []Conflict           `json:"conflicts"`
	Alternatives []MachineAlternative `json:"alternatives"`
}

// Analyzer answers conflict and alternative queries over a snapshot.
type Analyzer struct {
	store domain.PlanningStore
}

// NewAnalyzer creates a conflict analyzer.
func NewAnalyzer(store domain.PlanningStore) *Analyzer {
	return &Analyzer{store: store}
}

// ─── Conflict Detection ─────────────────────────────────────────────────────

// DetectConflict returns the earliest-starting existing commitment on
// the machine that overlaps the proposed window, or nil when the
// window is free. Only non-terminal stages with a full planned window
// are considered.
func (a *Analyzer) DetectConflict(rs domain.RouteStage, m domain.Machine, win Window) (*Conflict, error) {
	stages, err := a.store.GetActiveStagesOnMachine(m.ID)
	if err != nil {
		return nil, fmt.Errorf("active stages on machine %d: %w", m.ID, err)
	}

	var earliest *domain.TaskStage
	for i := range stages {
		st := &stages[i]
		if !st.Overlaps(win.Start, win.End) {
			continue
		}
		if earliest == nil || st.PlannedStartTime.Before(*earliest.PlannedStartTime) {
			earliest = st
		}
	}
	if earliest == nil {
		return nil, nil
	}

	return &Conflict{
		RouteStage:       rs,
		Machine:          m,
		ConflictTime:     *earliest.PlannedStartTime,
		ConflictingStage: *earliest,
		SuggestedWait:    earliest.PlannedEndTime.Sub(win.Start),
	}, nil
}

// Analyze checks every booking and collects conflicts plus ranked
// alternatives for the conflicted stages.
func (a *Analyzer) Analyze(bookings []StageBooking) (*ConflictAnalysis, error) {
	out := &ConflictAnalysis{}
	for _, b := range bookings {
		conflict, err := a.DetectConflict(b.RouteStage, b.Machine, b.Window)
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			continue
		}
		out.HasConflicts = true
		out.Conflicts = append(out.Conflicts, *conflict)

		ranked, err := a.RankAlternatives(b.RouteStage, conflict.ConflictTime)
		if err != nil {
			return nil, err
		}
		out.Alternatives = append(out.Alternatives, ranked...)
	}
	return out, nil
}

// ─── Alternative Ranking ────────────────────────────────────────────────────

// RankAlternatives scores every machine of the stage's required type
// at the given instant and returns them best-first (ascending
// priority, then earliest availability). An empty result means no
// machine of that type exists — a degenerate outcome, not an error.
func (a *Analyzer) RankAlternatives(rs domain.RouteStage, at time.Time) ([]MachineAlternative, error) {
	machines, err := a.store.GetMachinesByType(rs.MachineTypeID)
	if err != nil {
		return nil, fmt.Errorf("machines of type %d: %w", rs.MachineTypeID, err)
	}

	ranked := make([]MachineAlternative, 0, len(machines))
	for _, m := range machines {
		alt, err := a.availabilityAt(m, at, rs.StandardTimePerUnit)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, alt)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority < ranked[j].Priority
		}
		return ranked[i].EarliestAvailable.Before(ranked[j].EarliestAvailable)
	})
	return ranked, nil
}

// SelectBest returns the first available alternative, else the
// top-ranked one regardless of availability, else nil when no machine
// of the required type exists.
func (a *Analyzer) SelectBest(rs domain.RouteStage, at time.Time) (*domain.Machine, error) {
	ranked, err := a.RankAlternatives(rs, at)
	if err != nil {
		return nil, err
	}
	for i := range ranked {
		if ranked[i].Available {
			return &ranked[i].Machine, nil
		}
	}
	if len(ranked) > 0 {
		return &ranked[0].Machine, nil
	}
	return nil, nil
}

// availabilityAt probes the machine with a one-unit window starting at
// the given instant: availability, earliest free instant, and a rough
// daily-load factor (total planned hours / 24).
func (a *Analyzer) availabilityAt(m domain.Machine, start time.Time, probeHours float64) (MachineAlternative, error) {
	stages, err := a.store.GetActiveStagesOnMachine(m.ID)
	if err != nil {
		return MachineAlternative{}, fmt.Errorf("active stages on machine %d: %w", m.ID, err)
	}

	end := start.Add(time.Duration(probeHours * float64(time.Hour)))
	earliest := start
	available := true
	var plannedHours float64

	for i := range stages {
		st := &stages[i]
		plannedHours += st.PlannedDuration.Hours()
		if !st.Overlaps(start, end) {
			continue
		}
		available = false
		if st.PlannedEndTime.After(earliest) {
			earliest = *st.PlannedEndTime
		}
	}

	load := plannedHours / 24.0

	priority := int(math.Round(load * loadWeight))
	if available {
		priority += availableNowBonus
	}

	return MachineAlternative{
		Machine:           m,
		Available:         available,
		EarliestAvailable: earliest,
		LoadFactor:        load,
		Priority:          priority,
	}, nil
}
