package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// InsertTask persists a task and its stages in one transaction,
// writing the assigned ids back into the given structs.
func (d *DB) InsertTask(task *domain.Task) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTaskTx(tx, task); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTaskTx(tx *sql.Tx, task *domain.Task) error {
	res, err := tx.Exec(
		`INSERT INTO tasks (ref, part_id, quantity, creation_time, planned_start, planned_end, actual_start, actual_end, status, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Ref, task.PartID, task.Quantity, task.CreationTime.Unix(),
		nullableUnix(task.PlannedStartTime), nullableUnix(task.PlannedEndTime),
		nullableUnix(task.ActualStartTime), nullableUnix(task.ActualEndTime),
		string(task.Status), task.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	if task.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range task.Stages {
		task.Stages[i].TaskID = task.ID
		id, err := insertStageTx(tx, &task.Stages[i])
		if err != nil {
			return fmt.Errorf("insert stage %d: %w", i, err)
		}
		task.Stages[i].ID = id
	}
	return nil
}

func insertStageTx(tx *sql.Tx, st *domain.TaskStage) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO task_stages (task_id, route_stage_id, machine_id, quantity, order_in_task,
			planned_start, planned_end, planned_duration_ns, planned_setup_hours,
			actual_start, actual_end, actual_duration_ns, status, std_time_per_unit, parent_stage_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.TaskID, st.RouteStageID, nullableID(st.MachineID), st.QuantityToProcess, st.OrderInTask,
		nullableUnix(st.PlannedStartTime), nullableUnix(st.PlannedEndTime),
		int64(st.PlannedDuration), st.PlannedSetupTime,
		nullableUnix(st.ActualStartTime), nullableUnix(st.ActualEndTime),
		int64(st.ActualDuration), string(st.Status),
		st.StandardTimePerUnitAtExecution, nullableID(st.ParentStageID),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTask retrieves a task with its stages, ordered by position.
func (d *DB) GetTask(id int64) (*domain.Task, error) {
	var (
		t        domain.Task
		creation int64
		ps, pe   sql.NullInt64
		as, ae   sql.NullInt64
	)
	err := d.db.QueryRow(
		`SELECT id, ref, part_id, quantity, creation_time, planned_start, planned_end, actual_start, actual_end, status, notes
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Ref, &t.PartID, &t.Quantity, &creation, &ps, &pe, &as, &ae, &t.Status, &t.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	t.CreationTime = time.Unix(creation, 0).UTC()
	t.PlannedStartTime, t.PlannedEndTime = timePtr(ps), timePtr(pe)
	t.ActualStartTime, t.ActualEndTime = timePtr(as), timePtr(ae)

	rows, err := d.db.Query(stageColumns+` WHERE task_id = ? ORDER BY order_in_task`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		t.Stages = append(t.Stages, *st)
	}
	return &t, rows.Err()
}

// ListTasks returns tasks, newest first, optionally filtered by
// status. Stages are not loaded.
func (d *DB) ListTasks(status domain.Status, limit int) ([]domain.Task, error) {
	q := `SELECT id, ref, part_id, quantity, creation_time, planned_start, planned_end, actual_start, actual_end, status, notes
	      FROM tasks`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var (
			t        domain.Task
			creation int64
			ps, pe   sql.NullInt64
			as, ae   sql.NullInt64
		)
		err := rows.Scan(&t.ID, &t.Ref, &t.PartID, &t.Quantity, &creation,
			&ps, &pe, &as, &ae, &t.Status, &t.Notes)
		if err != nil {
			return nil, err
		}
		t.CreationTime = time.Unix(creation, 0).UTC()
		t.PlannedStartTime, t.PlannedEndTime = timePtr(ps), timePtr(pe)
		t.ActualStartTime, t.ActualEndTime = timePtr(as), timePtr(ae)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask persists task header mutations.
func (d *DB) UpdateTask(task *domain.Task) error {
	_, err := d.db.Exec(
		`UPDATE tasks SET planned_start = ?, planned_end = ?, actual_start = ?, actual_end = ?, status = ?, notes = ?
		 WHERE id = ?`,
		nullableUnix(task.PlannedStartTime), nullableUnix(task.PlannedEndTime),
		nullableUnix(task.ActualStartTime), nullableUnix(task.ActualEndTime),
		string(task.Status), task.Notes, task.ID,
	)
	return err
}

// GetPartOfTask returns the part id a task produces.
func (d *DB) GetPartOfTask(taskID int64) (int64, error) {
	var partID int64
	err := d.db.QueryRow(`SELECT part_id FROM tasks WHERE id = ?`, taskID).Scan(&partID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrTaskNotFound
	}
	return partID, err
}

// ─── Task Stages ────────────────────────────────────────────────────────────

const stageColumns = `SELECT id, task_id, route_stage_id, machine_id, quantity, order_in_task,
	planned_start, planned_end, planned_duration_ns, planned_setup_hours,
	actual_start, actual_end, actual_duration_ns, status, std_time_per_unit, parent_stage_id
	FROM task_stages`

func scanStage(s scanner) (*domain.TaskStage, error) {
	var (
		st               domain.TaskStage
		machine, parent  sql.NullInt64
		ps, pe, as, ae   sql.NullInt64
		plannedNS, actNS int64
	)
	err := s.Scan(&st.ID, &st.TaskID, &st.RouteStageID, &machine, &st.QuantityToProcess,
		&st.OrderInTask, &ps, &pe, &plannedNS, &st.PlannedSetupTime,
		&as, &ae, &actNS, &st.Status, &st.StandardTimePerUnitAtExecution, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStageNotFound
	}
	if err != nil {
		return nil, err
	}
	st.MachineID = machine.Int64
	st.ParentStageID = parent.Int64
	st.PlannedStartTime, st.PlannedEndTime = timePtr(ps), timePtr(pe)
	st.ActualStartTime, st.ActualEndTime = timePtr(as), timePtr(ae)
	st.PlannedDuration = time.Duration(plannedNS)
	st.ActualDuration = time.Duration(actNS)
	return &st, nil
}

// GetStage retrieves a single stage.
func (d *DB) GetStage(id int64) (*domain.TaskStage, error) {
	return scanStage(d.db.QueryRow(stageColumns+` WHERE id = ?`, id))
}

// UpdateStage persists stage mutations.
func (d *DB) UpdateStage(st *domain.TaskStage) error {
	_, err := d.db.Exec(
		`UPDATE task_stages SET machine_id = ?, quantity = ?, planned_start = ?, planned_end = ?,
			planned_duration_ns = ?, planned_setup_hours = ?, actual_start = ?, actual_end = ?,
			actual_duration_ns = ?, status = ?, parent_stage_id = ?
		 WHERE id = ?`,
		nullableID(st.MachineID), st.QuantityToProcess,
		nullableUnix(st.PlannedStartTime), nullableUnix(st.PlannedEndTime),
		int64(st.PlannedDuration), st.PlannedSetupTime,
		nullableUnix(st.ActualStartTime), nullableUnix(st.ActualEndTime),
		int64(st.ActualDuration), string(st.Status), nullableID(st.ParentStageID),
		st.ID,
	)
	return err
}

// GetActiveStagesOnMachine returns the machine's non-terminal stages
// with a full planned window, earliest first.
func (d *DB) GetActiveStagesOnMachine(machineID int64) ([]domain.TaskStage, error) {
	rows, err := d.db.Query(
		stageColumns+` WHERE machine_id = ?
			AND status NOT IN (?, ?)
			AND planned_start IS NOT NULL AND planned_end IS NOT NULL
		 ORDER BY planned_start`,
		machineID, string(domain.StatusCompleted), string(domain.StatusCancelled),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []domain.TaskStage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, *st)
	}
	return stages, rows.Err()
}

// GetLastCompletedStageOnMachine returns the machine's most recently
// completed stage by actual end time, or nil if there is none.
func (d *DB) GetLastCompletedStageOnMachine(machineID int64) (*domain.TaskStage, error) {
	st, err := scanStage(d.db.QueryRow(
		stageColumns+` WHERE machine_id = ? AND status = ? AND actual_end IS NOT NULL
		 ORDER BY actual_end DESC LIMIT 1`,
		machineID, string(domain.StatusCompleted),
	))
	if errors.Is(err, domain.ErrStageNotFound) {
		return nil, nil
	}
	return st, err
}

// CountOverdueStages counts stages still in progress whose planned end
// is before cutoff.
func (d *DB) CountOverdueStages(cutoff time.Time) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM task_stages WHERE status = ? AND planned_end IS NOT NULL AND planned_end < ?`,
		string(domain.StatusInProgress), cutoff.Unix(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overdue stages: %w", err)
	}
	return n, nil
}
