package domain

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define the boundary between the scheduling core and
// whatever persists the catalogs and tasks. The core reads a snapshot
// through them and never holds locks of its own; serializing concurrent
// planning requests is the caller's job.

// PlanningStore is the read surface the planners and the conflict
// analyzer consume.
type PlanningStore interface {
	// GetPart returns the part or ErrPartNotFound.
	GetPart(partID int64) (*Part, error)

	// GetRouteStages returns a part's route ordered by OrderInRoute.
	GetRouteStages(partID int64) ([]RouteStage, error)

	// GetMachinesByType returns all machines of a type, ordered by name.
	GetMachinesByType(machineTypeID int64) ([]Machine, error)

	// GetActiveStagesOnMachine returns stages assigned to the machine
	// whose status is not terminal and whose planned window is set.
	GetActiveStagesOnMachine(machineID int64) ([]TaskStage, error)

	// GetLastCompletedStageOnMachine returns the most recently completed
	// stage on the machine by actual end time, or nil if there is none.
	GetLastCompletedStageOnMachine(machineID int64) (*TaskStage, error)

	// GetPartOfTask returns the part id a task produces.
	GetPartOfTask(taskID int64) (int64, error)
}

// TrackingStore adds the task/stage persistence the tracking service
// and task creation need.
type TrackingStore interface {
	PlanningStore

	// GetTask returns the task with its stages, or ErrTaskNotFound.
	GetTask(taskID int64) (*Task, error)

	// GetStage returns a single stage, or ErrStageNotFound.
	GetStage(stageID int64) (*TaskStage, error)

	// InsertTask persists a new task and its stages, assigning ids.
	InsertTask(task *Task) error

	// UpdateTask persists task header mutations (status, actual times).
	UpdateTask(task *Task) error

	// UpdateStage persists stage mutations.
	UpdateStage(stage *TaskStage) error
}

// SplitStore is what the stage split resolver needs. Both apply
// operations must be atomic: on error the snapshot is unchanged, so
// callers never observe a partially applied split.
type SplitStore interface {
	GetStage(stageID int64) (*TaskStage, error)
	GetTask(taskID int64) (*Task, error)
	GetMachine(machineID int64) (*Machine, error)

	// ApplyStageSplit shrinks the original stage and inserts its new
	// sibling sub-stages in one transaction.
	ApplyStageSplit(updated *TaskStage, siblings []TaskStage) error

	// ReplaceTaskWithSplit deletes the task (and its stages) and inserts
	// the replacement tasks in one transaction.
	ReplaceTaskWithSplit(taskID int64, replacements []Task) error
}
