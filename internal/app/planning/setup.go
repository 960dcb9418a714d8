package planning

import (
	"errors"
	"fmt"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// DefaultChangeoverHours is the flat changeover allowance charged when
// a machine switches between different parts: 10 minutes. A heuristic,
// not calibrated per machine/part pair.
const DefaultChangeoverHours = 10.0 / 60.0

// SetupEstimator decides whether a changeover setup time is owed
// before an operation, based on the machine's completed history.
type SetupEstimator struct {
	store           domain.PlanningStore
	changeoverHours float64
}

// NewSetupEstimator creates an estimator. changeoverHours <= 0 selects
// the default 10-minute allowance.
func NewSetupEstimator(store domain.PlanningStore, changeoverHours float64) *SetupEstimator {
	if changeoverHours <= 0 {
		changeoverHours = DefaultChangeoverHours
	}
	return &SetupEstimator{store: store, changeoverHours: changeoverHours}
}

// EstimateSetupHours returns 0 when the machine has no completed
// history or its last completed stage produced the same part, and the
// flat changeover allowance otherwise.
func (e *SetupEstimator) EstimateSetupHours(machineID, partID int64) (float64, error) {
	last, err := e.store.GetLastCompletedStageOnMachine(machineID)
	if err != nil {
		return 0, fmt.Errorf("last completed stage on machine %d: %w", machineID, err)
	}
	if last == nil {
		return 0, nil // first job on this machine
	}

	lastPart, err := e.store.GetPartOfTask(last.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			// History references a task no longer in the snapshot;
			// assume a changeover is owed.
			return e.changeoverHours, nil
		}
		return 0, fmt.Errorf("part of task %d: %w", last.TaskID, err)
	}

	if lastPart == partID {
		return 0, nil // same part, no changeover
	}
	return e.changeoverHours, nil
}
