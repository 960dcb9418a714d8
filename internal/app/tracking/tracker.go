// Package tracking creates tasks from a part's route and records
// their execution: start/pause/complete transitions for tasks and
// stages, actual durations, and planned-versus-actual statistics.
package tracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// Tracker owns task lifecycle writes. Transitions go through the
// domain status machine; invalid ones fail with ErrInvalidTransition
// before anything is persisted.
type Tracker struct {
	store domain.TrackingStore
	now   func() time.Time
}

// NewTracker creates a tracker. now is the clock, nil selects UTC
// wall time.
func NewTracker(store domain.TrackingStore, now func() time.Time) *Tracker {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Tracker{store: store, now: now}
}

// ─── Task Creation ──────────────────────────────────────────────────────────

// CreateTask builds a task for quantity units of a part, with one
// stage per route stage in route order. Standard times are frozen into
// the stages so later route edits do not change a created task.
func (t *Tracker) CreateTask(partID int64, quantity int, notes string) (*domain.Task, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := t.store.GetPart(partID); err != nil {
		return nil, err
	}
	route, err := t.store.GetRouteStages(partID)
	if err != nil {
		return nil, fmt.Errorf("route stages of part %d: %w", partID, err)
	}
	if len(route) == 0 {
		return nil, domain.ErrNoRouteStages
	}

	task := &domain.Task{
		Ref:          uuid.NewString(),
		PartID:       partID,
		Quantity:     quantity,
		CreationTime: t.now(),
		Status:       domain.StatusPlanned,
		Notes:        notes,
	}
	for _, rs := range route {
		task.Stages = append(task.Stages, domain.TaskStage{
			RouteStageID:      rs.ID,
			QuantityToProcess: quantity,
			OrderInTask:       rs.OrderInRoute,
			Status:            domain.StatusPlanned,

			StandardTimePerUnitAtExecution: rs.StandardTimePerUnit,
		})
	}

	if err := t.store.InsertTask(task); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// ─── Task Transitions ───────────────────────────────────────────────────────

// StartTask moves a planned or paused task into progress. The first
// start stamps the actual start time; resuming does not reset it.
func (t *Tracker) StartTask(taskID int64) (*domain.Task, error) {
	task, err := t.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := transition(&task.Status, domain.StatusInProgress); err != nil {
		return nil, fmt.Errorf("task %d: %w", taskID, err)
	}
	if task.ActualStartTime == nil {
		now := t.now()
		task.ActualStartTime = &now
	}
	if err := t.store.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", taskID, err)
	}
	return task, nil
}

// PauseTask pauses an in-progress task.
func (t *Tracker) PauseTask(taskID int64) (*domain.Task, error) {
	task, err := t.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := transition(&task.Status, domain.StatusPaused); err != nil {
		return nil, fmt.Errorf("task %d: %w", taskID, err)
	}
	if err := t.store.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", taskID, err)
	}
	return task, nil
}

// CompleteTask finishes an in-progress task and stamps the actual end.
func (t *Tracker) CompleteTask(taskID int64) (*domain.Task, error) {
	task, err := t.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := transition(&task.Status, domain.StatusCompleted); err != nil {
		return nil, fmt.Errorf("task %d: %w", taskID, err)
	}
	now := t.now()
	task.ActualEndTime = &now
	if err := t.store.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", taskID, err)
	}
	return task, nil
}

// CancelTask cancels a task in any non-terminal state.
func (t *Tracker) CancelTask(taskID int64) (*domain.Task, error) {
	task, err := t.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := transition(&task.Status, domain.StatusCancelled); err != nil {
		return nil, fmt.Errorf("task %d: %w", taskID, err)
	}
	if err := t.store.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", taskID, err)
	}
	return task, nil
}

// ─── Stage Transitions ──────────────────────────────────────────────────────

// StartStage moves a planned or paused stage into progress.
func (t *Tracker) StartStage(stageID int64) (*domain.TaskStage, error) {
	stage, err := t.store.GetStage(stageID)
	if err != nil {
		return nil, err
	}
	if err := transition(&stage.Status, domain.StatusInProgress); err != nil {
		return nil, fmt.Errorf("stage %d: %w", stageID, err)
	}
	if stage.ActualStartTime == nil {
		now := t.now()
		stage.ActualStartTime = &now
	}
	if err := t.store.UpdateStage(stage); err != nil {
		return nil, fmt.Errorf("update stage %d: %w", stageID, err)
	}
	return stage, nil
}

// PauseStage pauses an in-progress stage.
func (t *Tracker) PauseStage(stageID int64) (*domain.TaskStage, error) {
	stage, err := t.store.GetStage(stageID)
	if err != nil {
		return nil, err
	}
	if err := transition(&stage.Status, domain.StatusPaused); err != nil {
		return nil, fmt.Errorf("stage %d: %w", stageID, err)
	}
	if err := t.store.UpdateStage(stage); err != nil {
		return nil, fmt.Errorf("update stage %d: %w", stageID, err)
	}
	return stage, nil
}

// CompleteStage finishes an in-progress stage, stamping the actual end
// and the measured duration.
func (t *Tracker) CompleteStage(stageID int64) (*domain.TaskStage, error) {
	stage, err := t.store.GetStage(stageID)
	if err != nil {
		return nil, err
	}
	if err := transition(&stage.Status, domain.StatusCompleted); err != nil {
		return nil, fmt.Errorf("stage %d: %w", stageID, err)
	}
	now := t.now()
	stage.ActualEndTime = &now
	if stage.ActualStartTime != nil {
		stage.ActualDuration = now.Sub(*stage.ActualStartTime)
	}
	if err := t.store.UpdateStage(stage); err != nil {
		return nil, fmt.Errorf("update stage %d: %w", stageID, err)
	}
	return stage, nil
}

func transition(s *domain.Status, next domain.Status) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, *s, next)
	}
	*s = next
	return nil
}

// ─── Statistics ─────────────────────────────────────────────────────────────

// StageStatistics compares one stage's plan against its execution.
type StageStatistics struct {
	StageID         int64         `json:"stage_id"`
	PlannedDuration time.Duration `json:"planned_duration"`
	ActualDuration  time.Duration `json:"actual_duration"`
	Efficiency      float64       `json:"efficiency"` // percent, planned/actual
	Deviation       time.Duration `json:"deviation"`  // actual - planned
}

// TaskStatistics aggregates a task's planned-versus-actual outcome.
type TaskStatistics struct {
	TaskID            int64             `json:"task_id"`
	PlannedDuration   time.Duration     `json:"planned_duration"`
	ActualDuration    time.Duration     `json:"actual_duration"`
	OverallEfficiency float64           `json:"overall_efficiency"`
	OverallDeviation  time.Duration     `json:"overall_deviation"`
	Stages            []StageStatistics `json:"stages"`
}

// Statistics computes execution statistics for a task and its stages.
// Durations missing an endpoint count as zero.
func (t *Tracker) Statistics(taskID int64) (*TaskStatistics, error) {
	task, err := t.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	stats := &TaskStatistics{TaskID: taskID}
	if task.PlannedStartTime != nil && task.PlannedEndTime != nil {
		stats.PlannedDuration = task.PlannedEndTime.Sub(*task.PlannedStartTime)
	}
	if task.ActualStartTime != nil && task.ActualEndTime != nil {
		stats.ActualDuration = task.ActualEndTime.Sub(*task.ActualStartTime)
	}

	for _, st := range task.Stages {
		stats.Stages = append(stats.Stages, StageStatistics{
			StageID:         st.ID,
			PlannedDuration: st.PlannedDuration,
			ActualDuration:  st.ActualDuration,
			Efficiency:      efficiency(st.PlannedDuration, st.ActualDuration),
			Deviation:       deviation(st.PlannedDuration, st.ActualDuration),
		})
	}

	stats.OverallEfficiency = efficiency(stats.PlannedDuration, stats.ActualDuration)
	stats.OverallDeviation = deviation(stats.PlannedDuration, stats.ActualDuration)
	return stats, nil
}

// CurrentDuration returns how long an in-progress stage has been
// running, and zero for any other state.
func (t *Tracker) CurrentDuration(stageID int64) (time.Duration, error) {
	stage, err := t.store.GetStage(stageID)
	if err != nil {
		return 0, err
	}
	if stage.Status != domain.StatusInProgress || stage.ActualStartTime == nil {
		return 0, nil
	}
	return t.now().Sub(*stage.ActualStartTime), nil
}

// DeviationPercent returns how far a stage's running (or final) time
// deviates from plan, in percent. Positive means slower than planned.
func (t *Tracker) DeviationPercent(stageID int64) (float64, error) {
	stage, err := t.store.GetStage(stageID)
	if err != nil {
		return 0, err
	}
	if stage.ActualStartTime == nil || stage.PlannedDuration <= 0 {
		return 0, nil
	}

	actual := stage.ActualDuration
	if stage.ActualEndTime == nil {
		actual = t.now().Sub(*stage.ActualStartTime)
	}
	return (actual.Minutes() - stage.PlannedDuration.Minutes()) / stage.PlannedDuration.Minutes() * 100, nil
}

func efficiency(planned, actual time.Duration) float64 {
	if planned <= 0 || actual <= 0 {
		return 0
	}
	return planned.Minutes() / actual.Minutes() * 100
}

func deviation(planned, actual time.Duration) time.Duration {
	if actual == 0 {
		return 0
	}
	return actual - planned
}
