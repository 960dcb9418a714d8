package planning

import (
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/app/calendar"
	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config configures the planning core.
type Config struct {
	Preferred         PreferredWindow // operator-preferred day window
	ChangeoverHours   float64         // setup allowance between different parts
	InterLotBuffer    time.Duration   // gap between consecutive lot plans
	DefaultMaxLotSize int             // lot size cap when the caller passes none
}

// DefaultConfig returns production planning defaults.
func DefaultConfig() Config {
	return Config{
		Preferred:         DefaultPreferredWindow(),
		ChangeoverHours:   DefaultChangeoverHours,
		InterLotBuffer:    15 * time.Minute,
		DefaultMaxLotSize: 10,
	}
}

// ─── Plan Types ─────────────────────────────────────────────────────────────

// StageAssignment pairs a route stage with the machine chosen for it.
type StageAssignment struct {
	RouteStage domain.RouteStage `json:"route_stage"`
	Machine    domain.Machine    `json:"machine"`
}

// StagePlan is one stage's placement inside a task plan.
type StagePlan struct {
	RouteStage          domain.RouteStage `json:"route_stage"`
	Machine             domain.Machine    `json:"machine"`
	QuantityToProcess   int               `json:"quantity_to_process"`
	SetupHours          float64           `json:"setup_hours"`
	Duration            time.Duration     `json:"duration"`
	PlannedStartTime    time.Time         `json:"planned_start_time"`
	PlannedEndTime      time.Time         `json:"planned_end_time"`
	Shift               *calendar.Shift   `json:"shift,omitempty"`
	DeferredToNextShift bool              `json:"split_across_shifts"`

	StandardTimePerUnitAtExecution float64 `json:"standard_time_per_unit_at_execution"`
}

// Plan is the planner's output for one task: per-stage placements in
// route order plus aggregates. Ephemeral — produced fresh per request,
// persisted (or discarded) by the caller.
type Plan struct {
	Part               domain.Part   `json:"part"`
	Quantity           int           `json:"quantity"`
	PreferredStartTime time.Time     `json:"preferred_start_time"`
	PlannedStartTime   time.Time     `json:"planned_start_time"`
	PlannedEndTime     time.Time     `json:"planned_end_time"`
	TotalDuration      time.Duration `json:"total_duration"`
	StagePlans         []StagePlan   `json:"stage_plans"`

	// ExceedsPreferredTime flags plans whose boundaries fall outside
	// the preferred day window.
	ExceedsPreferredTime bool `json:"exceeds_preferred_time"`
}

// ─── Task Planner ───────────────────────────────────────────────────────────

// Planner chains route stages into a sequential task plan.
type Planner struct {
	windows *WindowPlanner
	setup   *SetupEstimator
	pref    PreferredWindow
}

// NewPlanner creates a task planner over the calendar and store.
func NewPlanner(store domain.PlanningStore, cal *calendar.Calendar, cfg Config) *Planner {
	return &Planner{
		windows: NewWindowPlanner(cal, cfg.Preferred),
		setup:   NewSetupEstimator(store, cfg.ChangeoverHours),
		pref:    cfg.Preferred,
	}
}

// PlanTask plans one task: for each (routeStage, machine) pair in
// route order it charges setup time, sizes the stage duration from the
// standard time, asks the duration planner for the window, and chains
// stages strictly sequentially. Deterministic: identical inputs over
// an unchanged snapshot yield an identical plan.
func (p *Planner) PlanTask(part domain.Part, quantity int, preferredStart time.Time, assignments []StageAssignment) (*Plan, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if len(assignments) == 0 {
		return nil, domain.ErrNoAssignments
	}

	plan := &Plan{
		Part:               part,
		Quantity:           quantity,
		PreferredStartTime: preferredStart,
		StagePlans:         make([]StagePlan, 0, len(assignments)),
	}

	current := preferredStart
	for _, a := range assignments {
		setup, err := p.setup.EstimateSetupHours(a.Machine.ID, part.ID)
		if err != nil {
			return nil, err
		}

		hours := a.RouteStage.StandardTimePerUnit*float64(quantity) + setup
		required := hoursToDuration(hours)

		win := p.windows.PlanStageWindow(current, required)
		plan.StagePlans = append(plan.StagePlans, StagePlan{
			RouteStage:          a.RouteStage,
			Machine:             a.Machine,
			QuantityToProcess:   quantity,
			SetupHours:          setup,
			Duration:            required,
			PlannedStartTime:    win.Start,
			PlannedEndTime:      win.End,
			Shift:               win.Shift,
			DeferredToNextShift: win.DeferredToNextShift,

			StandardTimePerUnitAtExecution: a.RouteStage.StandardTimePerUnit,
		})
		current = win.End
	}

	plan.PlannedStartTime = plan.StagePlans[0].PlannedStartTime
	plan.PlannedEndTime = plan.StagePlans[len(plan.StagePlans)-1].PlannedEndTime
	plan.TotalDuration = plan.PlannedEndTime.Sub(plan.PlannedStartTime)
	// Compared by time-of-day: an overnight plan ending at 09:00 is
	// still inside the window.
	plan.ExceedsPreferredTime = calendar.TimeOfDay(plan.PlannedStartTime) < p.pref.Start ||
		calendar.TimeOfDay(plan.PlannedEndTime) > p.pref.End

	return plan, nil
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
