package sqlite

import (
	"fmt"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// ApplyStageSplit shrinks the original stage and inserts its sibling
// sub-stages in one transaction: either everything lands or nothing
// does.
func (d *DB) ApplyStageSplit(updated *domain.TaskStage, siblings []domain.TaskStage) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE task_stages SET machine_id = ?, quantity = ?, planned_start = ?, planned_end = ?,
			planned_duration_ns = ?, planned_setup_hours = ?
		 WHERE id = ?`,
		nullableID(updated.MachineID), updated.QuantityToProcess,
		nullableUnix(updated.PlannedStartTime), nullableUnix(updated.PlannedEndTime),
		int64(updated.PlannedDuration), updated.PlannedSetupTime,
		updated.ID,
	)
	if err != nil {
		return fmt.Errorf("shrink stage %d: %w", updated.ID, err)
	}

	for i := range siblings {
		siblings[i].TaskID = updated.TaskID
		id, err := insertStageTx(tx, &siblings[i])
		if err != nil {
			return fmt.Errorf("insert sibling %d: %w", i, err)
		}
		siblings[i].ID = id
	}
	return tx.Commit()
}

// ReplaceTaskWithSplit deletes a task with its stages and inserts the
// replacement tasks in one transaction.
func (d *DB) ReplaceTaskWithSplit(taskID int64, replacements []domain.Task) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM task_stages WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete stages of task %d: %w", taskID, err)
	}
	if _, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, taskID); err != nil {
		return fmt.Errorf("delete task %d: %w", taskID, err)
	}

	for i := range replacements {
		if err := insertTaskTx(tx, &replacements[i]); err != nil {
			return fmt.Errorf("insert replacement %d: %w", i, err)
		}
	}
	return tx.Commit()
}
