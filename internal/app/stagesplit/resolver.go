// Package stagesplit divides an already-planned task stage between
// several machines, either inside the owning task or by replacing the
// task with independent per-part tasks.
package stagesplit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// Mode selects how a split is materialized.
type Mode string

const (
	// WithinSameTask shrinks the original stage and adds sibling
	// stages to the same task.
	WithinSameTask Mode = "withinSameTask"

	// SeparateTasks replaces the whole task with one task per part.
	SeparateTasks Mode = "separateTasks"
)

// Part is one slice of a split request: a quantity routed to a machine.
type Part struct {
	Quantity  int   `json:"quantity"`
	MachineID int64 `json:"machine_id"`
}

// EvenSplit proposes n parts of as-equal-as-possible quantities on the
// given machines, front-loading the remainder. len(machineIDs) fixes n.
func EvenSplit(total int, machineIDs []int64) []Part {
	n := len(machineIDs)
	if n == 0 || total <= 0 {
		return nil
	}
	base, rem := total/n, total%n
	parts := make([]Part, n)
	for i := range parts {
		q := base
		if i < rem {
			q++
		}
		parts[i] = Part{Quantity: q, MachineID: machineIDs[i]}
	}
	return parts
}

// Result reports what a split produced. Exactly one of the two slices
// is populated, depending on the mode.
type Result struct {
	Mode Mode `json:"mode"`

	// UpdatedStage and NewStages are set in WithinSameTask mode: the
	// shrunk original plus its new siblings.
	UpdatedStage *domain.TaskStage  `json:"updated_stage,omitempty"`
	NewStages    []domain.TaskStage `json:"new_stages,omitempty"`

	// ReplacementTasks is set in SeparateTasks mode.
	ReplacementTasks []domain.Task `json:"replacement_tasks,omitempty"`
}

// Resolver validates and applies stage splits. All mutation goes
// through the store's atomic apply operations, so a failed split
// leaves no trace.
type Resolver struct {
	store domain.SplitStore
}

// NewResolver creates a split resolver over the store.
func NewResolver(store domain.SplitStore) *Resolver {
	return &Resolver{store: store}
}

// SplitStage divides the stage's quantity across parts. Validation is
// strict and runs before any mutation: the part quantities must sum
// exactly to the stage's quantity, every part needs an existing
// machine, and at least two parts are required.
func (r *Resolver) SplitStage(stageID int64, parts []Part, mode Mode) (*Result, error) {
	stage, err := r.store.GetStage(stageID)
	if err != nil {
		return nil, err
	}

	if err := r.validate(stage, parts); err != nil {
		return nil, err
	}

	switch mode {
	case WithinSameTask:
		return r.splitWithinTask(stage, parts)
	case SeparateTasks:
		return r.splitIntoTasks(stage, parts)
	default:
		return nil, fmt.Errorf("unknown split mode %q", mode)
	}
}

func (r *Resolver) validate(stage *domain.TaskStage, parts []Part) error {
	if len(parts) < 2 {
		return domain.ErrSplitTooFewParts
	}
	sum := 0
	for _, p := range parts {
		if p.MachineID == 0 {
			return domain.ErrSplitMachineMissing
		}
		if _, err := r.store.GetMachine(p.MachineID); err != nil {
			return fmt.Errorf("part machine %d: %w", p.MachineID, err)
		}
		if p.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		sum += p.Quantity
	}
	if sum != stage.QuantityToProcess {
		return fmt.Errorf("%w: parts sum to %d, stage has %d",
			domain.ErrSplitQuantityMismatch, sum, stage.QuantityToProcess)
	}
	return nil
}

// splitWithinTask shrinks the original stage to the first part and
// creates one sibling per remaining part. Siblings inherit the
// original's planned start, carry a proportionally rescaled duration,
// and owe no setup time: same part, no changeover.
func (r *Resolver) splitWithinTask(stage *domain.TaskStage, parts []Part) (*Result, error) {
	oldQty := stage.QuantityToProcess

	updated := *stage
	updated.QuantityToProcess = parts[0].Quantity
	updated.MachineID = parts[0].MachineID
	updated.PlannedDuration = rescale(stage.PlannedDuration, parts[0].Quantity, oldQty)
	if updated.PlannedStartTime != nil {
		end := updated.PlannedStartTime.Add(updated.PlannedDuration)
		updated.PlannedEndTime = &end
	}

	siblings := make([]domain.TaskStage, 0, len(parts)-1)
	for _, p := range parts[1:] {
		sib := *stage
		sib.ID = 0
		sib.ParentStageID = stage.ID
		sib.QuantityToProcess = p.Quantity
		sib.MachineID = p.MachineID
		sib.PlannedSetupTime = 0
		sib.PlannedDuration = rescale(stage.PlannedDuration, p.Quantity, oldQty)
		sib.Status = domain.StatusPlanned
		if stage.PlannedStartTime != nil {
			start := *stage.PlannedStartTime
			end := start.Add(sib.PlannedDuration)
			sib.PlannedStartTime = &start
			sib.PlannedEndTime = &end
		}
		siblings = append(siblings, sib)
	}

	if err := r.store.ApplyStageSplit(&updated, siblings); err != nil {
		return nil, fmt.Errorf("apply stage split: %w", err)
	}
	return &Result{Mode: WithinSameTask, UpdatedStage: &updated, NewStages: siblings}, nil
}

// splitIntoTasks replaces the owning task with one task per part. Each
// replacement clones every stage of the original with quantity and
// duration rescaled to the part; only the split target stage takes the
// part's machine, the rest keep their assignment.
func (r *Resolver) splitIntoTasks(stage *domain.TaskStage, parts []Part) (*Result, error) {
	task, err := r.store.GetTask(stage.TaskID)
	if err != nil {
		return nil, err
	}

	oldQty := stage.QuantityToProcess
	replacements := make([]domain.Task, 0, len(parts))
	for i, p := range parts {
		nt := domain.Task{
			Ref:          uuid.NewString(),
			PartID:       task.PartID,
			Quantity:     p.Quantity,
			CreationTime: time.Now().UTC(),
			Status:       domain.StatusPlanned,
			Notes:        fmt.Sprintf("split %d/%d of task %d", i+1, len(parts), task.ID),
		}
		for _, st := range task.Stages {
			ns := st
			ns.ID = 0
			ns.TaskID = 0
			ns.QuantityToProcess = rescaleQty(st.QuantityToProcess, p.Quantity, task.Quantity)
			ns.PlannedDuration = rescale(st.PlannedDuration, ns.QuantityToProcess, st.QuantityToProcess)
			ns.Status = domain.StatusPlanned
			if st.ID == stage.ID {
				ns.MachineID = p.MachineID
				ns.QuantityToProcess = p.Quantity
				ns.PlannedDuration = rescale(stage.PlannedDuration, p.Quantity, oldQty)
			}
			if ns.PlannedStartTime != nil {
				end := ns.PlannedStartTime.Add(ns.PlannedDuration)
				ns.PlannedEndTime = &end
			}
			nt.Stages = append(nt.Stages, ns)
		}
		replacements = append(replacements, nt)
	}

	if err := r.store.ReplaceTaskWithSplit(task.ID, replacements); err != nil {
		return nil, fmt.Errorf("replace task with split: %w", err)
	}
	return &Result{Mode: SeparateTasks, ReplacementTasks: replacements}, nil
}

// rescale returns d × num/den, guarding against a zero denominator.
func rescale(d time.Duration, num, den int) time.Duration {
	if den == 0 {
		return d
	}
	return time.Duration(float64(d) * float64(num) / float64(den))
}

func rescaleQty(q, num, den int) int {
	if den == 0 {
		return q
	}
	return q * num / den
}
