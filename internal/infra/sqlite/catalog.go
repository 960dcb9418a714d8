package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// ─── Machine Types ──────────────────────────────────────────────────────────

// InsertMachineType creates a machine type and returns its id.
func (d *DB) InsertMachineType(name string) (int64, error) {
	res, err := d.db.Exec(`INSERT INTO machine_types (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListMachineTypes returns all machine types ordered by name.
func (d *DB) ListMachineTypes() ([]domain.MachineType, error) {
	rows, err := d.db.Query(`SELECT id, name FROM machine_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []domain.MachineType
	for rows.Next() {
		var mt domain.MachineType
		if err := rows.Scan(&mt.ID, &mt.Name); err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, rows.Err()
}

// ─── Machines ───────────────────────────────────────────────────────────────

// InsertMachine creates a machine and returns its id.
func (d *DB) InsertMachine(name string, machineTypeID int64) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO machines (name, machine_type_id) VALUES (?, ?)`,
		name, machineTypeID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetMachine retrieves a machine by id.
func (d *DB) GetMachine(id int64) (*domain.Machine, error) {
	var m domain.Machine
	err := d.db.QueryRow(
		`SELECT id, name, machine_type_id FROM machines WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.MachineTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMachineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMachinesByType returns all machines of a type, ordered by name.
func (d *DB) GetMachinesByType(machineTypeID int64) ([]domain.Machine, error) {
	rows, err := d.db.Query(
		`SELECT id, name, machine_type_id FROM machines WHERE machine_type_id = ? ORDER BY name`,
		machineTypeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var machines []domain.Machine
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.MachineTypeID); err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// ListMachines returns every machine ordered by name.
func (d *DB) ListMachines() ([]domain.Machine, error) {
	rows, err := d.db.Query(`SELECT id, name, machine_type_id FROM machines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var machines []domain.Machine
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.MachineTypeID); err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// ─── Parts & Routes ─────────────────────────────────────────────────────────

// InsertPart creates a part and returns its id.
func (d *DB) InsertPart(name, code string) (int64, error) {
	res, err := d.db.Exec(`INSERT INTO parts (name, code) VALUES (?, ?)`, name, code)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPart retrieves a part by id.
func (d *DB) GetPart(id int64) (*domain.Part, error) {
	var p domain.Part
	err := d.db.QueryRow(
		`SELECT id, name, code FROM parts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParts returns every part ordered by code.
func (d *DB) ListParts() ([]domain.Part, error) {
	rows, err := d.db.Query(`SELECT id, name, code FROM parts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []domain.Part
	for rows.Next() {
		var p domain.Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Code); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// InsertRouteStage appends an operation to a part's route.
func (d *DB) InsertRouteStage(rs domain.RouteStage) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO route_stages (part_id, operation_number, operation_name, machine_type_id, standard_time_per_unit, order_in_route)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rs.PartID, rs.OperationNumber, rs.OperationName,
		rs.MachineTypeID, rs.StandardTimePerUnit, rs.OrderInRoute,
	)
	if err != nil {
		return 0, fmt.Errorf("insert route stage: %w", err)
	}
	return res.LastInsertId()
}

// GetRouteStage retrieves a single route stage by id.
func (d *DB) GetRouteStage(id int64) (*domain.RouteStage, error) {
	var rs domain.RouteStage
	err := d.db.QueryRow(
		`SELECT id, part_id, operation_number, operation_name, machine_type_id, standard_time_per_unit, order_in_route
		 FROM route_stages WHERE id = ?`, id,
	).Scan(&rs.ID, &rs.PartID, &rs.OperationNumber, &rs.OperationName,
		&rs.MachineTypeID, &rs.StandardTimePerUnit, &rs.OrderInRoute)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// GetRouteStages returns a part's route ordered by position.
func (d *DB) GetRouteStages(partID int64) ([]domain.RouteStage, error) {
	rows, err := d.db.Query(
		`SELECT id, part_id, operation_number, operation_name, machine_type_id, standard_time_per_unit, order_in_route
		 FROM route_stages WHERE part_id = ? ORDER BY order_in_route`,
		partID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []domain.RouteStage
	for rows.Next() {
		var rs domain.RouteStage
		err := rows.Scan(&rs.ID, &rs.PartID, &rs.OperationNumber, &rs.OperationName,
			&rs.MachineTypeID, &rs.StandardTimePerUnit, &rs.OrderInRoute)
		if err != nil {
			return nil, err
		}
		stages = append(stages, rs)
	}
	return stages, rows.Err()
}
