package sqlite

import (
	"fmt"
	"log"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

// SeedDemo loads a small demo catalog: three machine types, four
// machines, and two parts with processing routes. Idempotent — a
// non-empty catalog is left untouched.
func (d *DB) SeedDemo() error {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM parts`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[sqlite] seed skipped, catalog already has %d parts", n)
		return nil
	}

	lathe, err := d.InsertMachineType("CNC lathe")
	if err != nil {
		return fmt.Errorf("seed machine types: %w", err)
	}
	mill, err := d.InsertMachineType("Universal mill")
	if err != nil {
		return fmt.Errorf("seed machine types: %w", err)
	}
	drill, err := d.InsertMachineType("Drill press")
	if err != nil {
		return fmt.Errorf("seed machine types: %w", err)
	}

	machines := []struct {
		name   string
		typeID int64
	}{
		{"Lathe-001", lathe},
		{"Lathe-002", lathe},
		{"Mill-001", mill},
		{"Drill-001", drill},
	}
	for _, m := range machines {
		if _, err := d.InsertMachine(m.name, m.typeID); err != nil {
			return fmt.Errorf("seed machine %s: %w", m.name, err)
		}
	}

	shaft, err := d.InsertPart("Drive shaft", "VAL-001")
	if err != nil {
		return fmt.Errorf("seed parts: %w", err)
	}
	housing, err := d.InsertPart("Gearbox housing", "CORP-001")
	if err != nil {
		return fmt.Errorf("seed parts: %w", err)
	}

	routes := []domain.RouteStage{
		{PartID: shaft, OperationNumber: "010", OperationName: "Turning", MachineTypeID: lathe, StandardTimePerUnit: 0.5, OrderInRoute: 1},
		{PartID: shaft, OperationNumber: "020", OperationName: "Milling", MachineTypeID: mill, StandardTimePerUnit: 0.25, OrderInRoute: 2},
		{PartID: housing, OperationNumber: "010", OperationName: "Milling", MachineTypeID: mill, StandardTimePerUnit: 1.0, OrderInRoute: 1},
		{PartID: housing, OperationNumber: "020", OperationName: "Drilling", MachineTypeID: drill, StandardTimePerUnit: 0.33, OrderInRoute: 2},
	}
	for _, rs := range routes {
		if _, err := d.InsertRouteStage(rs); err != nil {
			return fmt.Errorf("seed route %s/%s: %w", rs.OperationNumber, rs.OperationName, err)
		}
	}

	log.Printf("[sqlite] seeded demo catalog: %d machines, 2 parts", len(machines))
	return nil
}
