package domain

import "time"

// Part is a catalog item that can be manufactured. Its route stages
// define the ordered operations needed to produce one unit.
type Part struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// MachineType groups interchangeable machines ("CNC lathe",
// "universal mill"). Route stages require a type, not a machine.
type MachineType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Machine is a concrete unit of equipment on the shop floor.
type Machine struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	MachineTypeID int64  `json:"machine_type_id"`
}

// RouteStage is one operation template in a part's processing route.
// Read-only to the scheduling core; catalog maintenance owns it.
type RouteStage struct {
	ID                  int64   `json:"id"`
	PartID              int64   `json:"part_id"`
	OperationNumber     string  `json:"operation_number"`
	OperationName       string  `json:"operation_name"`
	MachineTypeID       int64   `json:"machine_type_id"`
	StandardTimePerUnit float64 `json:"standard_time_per_unit"` // hours per unit
	OrderInRoute        int     `json:"order_in_route"`         // 1-based, unique per part
}

// Task is a production order for Quantity units of one part.
type Task struct {
	ID               int64      `json:"id"`
	Ref              string     `json:"ref"` // external reference (uuid)
	PartID           int64      `json:"part_id"`
	Quantity         int        `json:"quantity"`
	CreationTime     time.Time  `json:"creation_time"`
	PlannedStartTime *time.Time `json:"planned_start_time,omitempty"`
	PlannedEndTime   *time.Time `json:"planned_end_time,omitempty"`
	ActualStartTime  *time.Time `json:"actual_start_time,omitempty"`
	ActualEndTime    *time.Time `json:"actual_end_time,omitempty"`
	Status           Status     `json:"status"`
	Notes            string     `json:"notes,omitempty"`

	Stages []TaskStage `json:"stages,omitempty"`
}

// TaskStage is the execution instance of a RouteStage within one task.
// QuantityToProcess may be less than Task.Quantity after a split;
// the standard time is frozen at planning so later route edits do not
// retroactively change a scheduled stage.
type TaskStage struct {
	ID                int64 `json:"id"`
	TaskID            int64 `json:"task_id"`
	RouteStageID      int64 `json:"route_stage_id"`
	MachineID         int64 `json:"machine_id,omitempty"` // 0 until a machine is assigned
	QuantityToProcess int   `json:"quantity_to_process"`
	OrderInTask       int   `json:"order_in_task"`

	PlannedStartTime *time.Time    `json:"planned_start_time,omitempty"`
	PlannedEndTime   *time.Time    `json:"planned_end_time,omitempty"`
	PlannedDuration  time.Duration `json:"planned_duration"`
	PlannedSetupTime float64       `json:"planned_setup_time"` // hours

	ActualStartTime *time.Time    `json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time    `json:"actual_end_time,omitempty"`
	ActualDuration  time.Duration `json:"actual_duration,omitempty"`

	Status Status `json:"status"`

	StandardTimePerUnitAtExecution float64 `json:"standard_time_per_unit_at_execution"`

	// Set when this stage was carved out of another stage by a split.
	ParentStageID int64 `json:"parent_stage_id,omitempty"`
}

// HasPlannedWindow reports whether both planned endpoints are set.
// Only stages with a full window participate in conflict detection.
func (ts *TaskStage) HasPlannedWindow() bool {
	return ts.PlannedStartTime != nil && ts.PlannedEndTime != nil
}

// Overlaps checks the stage's planned window against [start, end)
// using half-open interval semantics: windows that merely touch at a
// boundary do not overlap.
func (ts *TaskStage) Overlaps(start, end time.Time) bool {
	if !ts.HasPlannedWindow() {
		return false
	}
	return ts.PlannedStartTime.Before(end) && ts.PlannedEndTime.After(start)
}
