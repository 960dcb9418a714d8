package planning

import (
	"fmt"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/app/alternatives"
	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// maxAlternativesPerStage caps how many runner-up machines a lot plan
// reports alongside the selected one.
const maxAlternativesPerStage = 3

// AlternativeOption records the machine chosen for one stage of a lot
// together with the runners-up, so a reviewer can re-assign by hand.
type AlternativeOption struct {
	RouteStage   domain.RouteStage                 `json:"route_stage"`
	Selected     domain.Machine                    `json:"selected"`
	Alternatives []alternatives.MachineAlternative `json:"alternatives"`
}

// LotPlan is the plan for one sub-lot.
type LotPlan struct {
	LotNumber    int                 `json:"lot_number"`
	Quantity     int                 `json:"quantity"`
	Plan         *Plan               `json:"plan"`
	Alternatives []AlternativeOption `json:"alternatives,omitempty"`
}

// SplitPlanResult is the multi-lot planning output. Warnings carry the
// per-lot failures that did not abort the remaining lots.
type SplitPlanResult struct {
	Part          domain.Part `json:"part"`
	TotalQuantity int         `json:"total_quantity"`
	LotSizes      []int       `json:"lot_sizes"`
	Lots          []LotPlan   `json:"lots"`
	Warnings      []string    `json:"warnings,omitempty"`
}

// LotSplitter partitions a requested quantity into lots and plans each
// lot as an independent task.
type LotSplitter struct {
	store    domain.PlanningStore
	planner  *Planner
	selector *alternatives.Analyzer

	// buffer is the gap inserted between a lot's planned end and the
	// next lot's preferred start (InterLotBuffer policy: one fixed
	// duration, applied uniformly between consecutive lots).
	buffer time.Duration

	defaultMaxLot int
}

// NewLotSplitter creates a lot splitter wired to the planner and the
// alternative-machine selector.
func NewLotSplitter(store domain.PlanningStore, planner *Planner, selector *alternatives.Analyzer, cfg Config) *LotSplitter {
	return &LotSplitter{
		store:         store,
		planner:       planner,
		selector:      selector,
		buffer:        cfg.InterLotBuffer,
		defaultMaxLot: cfg.DefaultMaxLotSize,
	}
}

// LotSizes partitions total into lots of at most maxLot units,
// preserving order; the last lot may be smaller. maxLot <= 0 yields a
// single lot.
func LotSizes(total, maxLot int) []int {
	if total <= 0 {
		return nil
	}
	if maxLot <= 0 {
		return []int{total}
	}
	var sizes []int
	for remaining := total; remaining > 0; remaining -= maxLot {
		sizes = append(sizes, min(remaining, maxLot))
	}
	return sizes
}

// PlanWithSplitting partitions totalQuantity into lots and plans each
// lot in turn, selecting a machine per route stage via the alternative
// ranking. Per-lot failures become warnings; remaining lots continue.
func (ls *LotSplitter) PlanWithSplitting(partID int64, totalQuantity int, preferredStart time.Time, maxLotSize int, allowAlternatives bool) (*SplitPlanResult, error) {
	if totalQuantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	part, err := ls.store.GetPart(partID)
	if err != nil {
		return nil, err
	}

	if maxLotSize <= 0 {
		maxLotSize = ls.defaultMaxLot
	}

	result := &SplitPlanResult{
		Part:          *part,
		TotalQuantity: totalQuantity,
		LotSizes:      LotSizes(totalQuantity, maxLotSize),
	}

	route, err := ls.store.GetRouteStages(partID)
	if err != nil {
		return nil, err
	}
	if len(route) == 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("part %s has no processing route", part.Code))
		return result, nil
	}

	current := preferredStart
	for i, size := range result.LotSizes {
		lot := LotPlan{LotNumber: i + 1, Quantity: size}

		var assignments []StageAssignment
		for _, rs := range route {
			ranked, err := ls.selector.RankAlternatives(rs, current)
			if err != nil {
				return nil, err
			}
			if len(ranked) == 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("lot %d: no machine available for operation %s", lot.LotNumber, rs.OperationName))
				continue
			}

			best := ranked[0]
			for _, alt := range ranked {
				if alt.Available {
					best = alt
					break
				}
			}
			assignments = append(assignments, StageAssignment{RouteStage: rs, Machine: best.Machine})

			if allowAlternatives && len(ranked) > 1 {
				n := min(len(ranked)-1, maxAlternativesPerStage)
				lot.Alternatives = append(lot.Alternatives, AlternativeOption{
					RouteStage:   rs,
					Selected:     best.Machine,
					Alternatives: ranked[1 : 1+n],
				})
			}
		}

		if len(assignments) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("lot %d: no stage could be scheduled", lot.LotNumber))
			continue
		}

		plan, err := ls.planner.PlanTask(*part, size, current, assignments)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("lot %d: %v", lot.LotNumber, err))
			continue
		}

		lot.Plan = plan
		result.Lots = append(result.Lots, lot)
		current = plan.PlannedEndTime.Add(ls.buffer)
	}

	return result, nil
}
