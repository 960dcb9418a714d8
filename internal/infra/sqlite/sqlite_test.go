package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// seedCatalog inserts one lathe type with two machines and a two-stage
// part, returning the ids the tests need.
func seedCatalog(t *testing.T, d *DB) (partID, latheID, millMachineID int64, route []domain.RouteStage) {
	t.Helper()

	latheType, err := d.InsertMachineType("CNC lathe")
	if err != nil {
		t.Fatal(err)
	}
	millType, err := d.InsertMachineType("Universal mill")
	if err != nil {
		t.Fatal(err)
	}
	latheID, err = d.InsertMachine("Lathe-001", latheType)
	if err != nil {
		t.Fatal(err)
	}
	millMachineID, err = d.InsertMachine("Mill-001", millType)
	if err != nil {
		t.Fatal(err)
	}

	partID, err = d.InsertPart("Drive shaft", "VAL-001")
	if err != nil {
		t.Fatal(err)
	}
	for _, rs := range []domain.RouteStage{
		{PartID: partID, OperationNumber: "010", OperationName: "Turning", MachineTypeID: latheType, StandardTimePerUnit: 0.5, OrderInRoute: 1},
		{PartID: partID, OperationNumber: "020", OperationName: "Milling", MachineTypeID: millType, StandardTimePerUnit: 0.25, OrderInRoute: 2},
	} {
		if _, err := d.InsertRouteStage(rs); err != nil {
			t.Fatal(err)
		}
	}

	route, err = d.GetRouteStages(partID)
	if err != nil {
		t.Fatal(err)
	}
	return partID, latheID, millMachineID, route
}

func ts(hour int) *time.Time {
	t := time.Date(2025, 6, 2, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	d.Close()

	// Reopening runs migrations again over the same file.
	d, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer d.Close()
	if err := d.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestCatalog(t *testing.T) {
	d := openTestDB(t)
	partID, _, _, route := seedCatalog(t, d)

	part, err := d.GetPart(partID)
	if err != nil {
		t.Fatalf("GetPart() error: %v", err)
	}
	if part.Code != "VAL-001" {
		t.Errorf("part code = %q, want VAL-001", part.Code)
	}

	if _, err := d.GetPart(999); !errors.Is(err, domain.ErrPartNotFound) {
		t.Errorf("missing part: err = %v, want ErrPartNotFound", err)
	}
	if _, err := d.GetMachine(999); !errors.Is(err, domain.ErrMachineNotFound) {
		t.Errorf("missing machine: err = %v, want ErrMachineNotFound", err)
	}

	if len(route) != 2 || route[0].OrderInRoute != 1 || route[1].OrderInRoute != 2 {
		t.Errorf("route = %+v, want 2 stages in order", route)
	}

	types, err := d.ListMachineTypes()
	if err != nil || len(types) != 2 {
		t.Errorf("ListMachineTypes() = %v, %v; want 2 types", types, err)
	}
}

func TestTaskRoundTrip(t *testing.T) {
	d := openTestDB(t)
	partID, latheID, _, route := seedCatalog(t, d)

	task := &domain.Task{
		Ref:          "ref-1",
		PartID:       partID,
		Quantity:     10,
		CreationTime: time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC),
		Status:       domain.StatusPlanned,
		Notes:        "order 42",
		Stages: []domain.TaskStage{
			{
				RouteStageID:      route[0].ID,
				MachineID:         latheID,
				QuantityToProcess: 10,
				OrderInTask:       1,
				PlannedStartTime:  ts(8),
				PlannedEndTime:    ts(13),
				PlannedDuration:   5 * time.Hour,
				PlannedSetupTime:  10.0 / 60.0,
				Status:            domain.StatusPlanned,

				StandardTimePerUnitAtExecution: 0.5,
			},
		},
	}
	if err := d.InsertTask(task); err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}
	if task.ID == 0 || task.Stages[0].ID == 0 {
		t.Fatalf("ids not assigned: task=%d stage=%d", task.ID, task.Stages[0].ID)
	}

	got, err := d.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got.Ref != "ref-1" || got.Quantity != 10 || len(got.Stages) != 1 {
		t.Errorf("GetTask() = %+v, want the inserted task with 1 stage", got)
	}
	st := got.Stages[0]
	if !st.PlannedStartTime.Equal(*ts(8)) || !st.PlannedEndTime.Equal(*ts(13)) {
		t.Errorf("stage window = [%v, %v], want [08:00, 13:00]", st.PlannedStartTime, st.PlannedEndTime)
	}
	if st.PlannedDuration != 5*time.Hour {
		t.Errorf("stage duration = %v, want 5h", st.PlannedDuration)
	}

	if pid, err := d.GetPartOfTask(task.ID); err != nil || pid != partID {
		t.Errorf("GetPartOfTask() = %d, %v; want %d", pid, err, partID)
	}
	if _, err := d.GetPartOfTask(999); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("missing task: err = %v, want ErrTaskNotFound", err)
	}

	// Status update round-trips.
	got.Status = domain.StatusInProgress
	got.ActualStartTime = ts(8)
	if err := d.UpdateTask(got); err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	again, err := d.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != domain.StatusInProgress || again.ActualStartTime == nil {
		t.Errorf("updated task = %s start=%v", again.Status, again.ActualStartTime)
	}
}

func TestMachineQueries(t *testing.T) {
	d := openTestDB(t)
	partID, latheID, _, route := seedCatalog(t, d)

	insert := func(status domain.Status, start, end *time.Time, actualEnd *time.Time) *domain.Task {
		t.Helper()
		task := &domain.Task{
			Ref: "ref-" + string(status) + time.Now().Format("150405.000000000"), PartID: partID,
			Quantity: 5, CreationTime: time.Now(), Status: status,
			Stages: []domain.TaskStage{{
				RouteStageID: route[0].ID, MachineID: latheID, QuantityToProcess: 5,
				OrderInTask: 1, PlannedStartTime: start, PlannedEndTime: end,
				ActualEndTime: actualEnd, Status: status,
			}},
		}
		if err := d.InsertTask(task); err != nil {
			t.Fatal(err)
		}
		return task
	}

	insert(domain.StatusPlanned, ts(8), ts(13), nil)
	insert(domain.StatusInProgress, ts(13), ts(15), nil)
	completed := insert(domain.StatusCompleted, ts(6), ts(8), ts(8))
	insert(domain.StatusCancelled, ts(15), ts(16), nil)

	active, err := d.GetActiveStagesOnMachine(latheID)
	if err != nil {
		t.Fatalf("GetActiveStagesOnMachine() error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2 (planned + in-progress)", len(active))
	}
	if !active[0].PlannedStartTime.Before(*active[1].PlannedStartTime) {
		t.Error("active stages not ordered by planned start")
	}

	last, err := d.GetLastCompletedStageOnMachine(latheID)
	if err != nil {
		t.Fatalf("GetLastCompletedStageOnMachine() error: %v", err)
	}
	if last == nil || last.TaskID != completed.ID {
		t.Errorf("last completed = %+v, want stage of task %d", last, completed.ID)
	}

	// A machine with no history yields nil, not an error.
	none, err := d.GetLastCompletedStageOnMachine(999)
	if err != nil || none != nil {
		t.Errorf("empty machine: got %+v, %v; want nil, nil", none, err)
	}
}

func TestApplyStageSplit(t *testing.T) {
	d := openTestDB(t)
	partID, latheID, millID, route := seedCatalog(t, d)

	task := &domain.Task{
		Ref: "ref-split", PartID: partID, Quantity: 20,
		CreationTime: time.Now(), Status: domain.StatusPlanned,
		Stages: []domain.TaskStage{{
			RouteStageID: route[0].ID, MachineID: latheID, QuantityToProcess: 20,
			OrderInTask: 1, PlannedStartTime: ts(8), PlannedEndTime: ts(18),
			PlannedDuration: 10 * time.Hour, Status: domain.StatusPlanned,
		}},
	}
	if err := d.InsertTask(task); err != nil {
		t.Fatal(err)
	}
	orig := task.Stages[0]

	updated := orig
	updated.QuantityToProcess = 10
	updated.PlannedDuration = 5 * time.Hour
	updated.PlannedEndTime = ts(13)

	sibling := orig
	sibling.ID = 0
	sibling.MachineID = millID
	sibling.QuantityToProcess = 10
	sibling.PlannedDuration = 5 * time.Hour
	sibling.PlannedEndTime = ts(13)
	sibling.ParentStageID = orig.ID
	sibling.PlannedSetupTime = 0

	if err := d.ApplyStageSplit(&updated, []domain.TaskStage{sibling}); err != nil {
		t.Fatalf("ApplyStageSplit() error: %v", err)
	}

	got, err := d.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2 after split", len(got.Stages))
	}
	var sawParent bool
	for _, st := range got.Stages {
		if st.QuantityToProcess != 10 {
			t.Errorf("stage %d quantity = %d, want 10", st.ID, st.QuantityToProcess)
		}
		if st.ParentStageID == orig.ID {
			sawParent = true
		}
	}
	if !sawParent {
		t.Error("no stage carries the original's id as parent")
	}
}

func TestReplaceTaskWithSplit(t *testing.T) {
	d := openTestDB(t)
	partID, latheID, _, route := seedCatalog(t, d)

	task := &domain.Task{
		Ref: "ref-orig", PartID: partID, Quantity: 20,
		CreationTime: time.Now(), Status: domain.StatusPlanned,
		Stages: []domain.TaskStage{{
			RouteStageID: route[0].ID, MachineID: latheID, QuantityToProcess: 20,
			OrderInTask: 1, Status: domain.StatusPlanned,
		}},
	}
	if err := d.InsertTask(task); err != nil {
		t.Fatal(err)
	}

	replacements := []domain.Task{
		{Ref: "ref-a", PartID: partID, Quantity: 15, CreationTime: time.Now(), Status: domain.StatusPlanned,
			Stages: []domain.TaskStage{{RouteStageID: route[0].ID, MachineID: latheID, QuantityToProcess: 15, OrderInTask: 1, Status: domain.StatusPlanned}}},
		{Ref: "ref-b", PartID: partID, Quantity: 5, CreationTime: time.Now(), Status: domain.StatusPlanned,
			Stages: []domain.TaskStage{{RouteStageID: route[0].ID, MachineID: latheID, QuantityToProcess: 5, OrderInTask: 1, Status: domain.StatusPlanned}}},
	}
	if err := d.ReplaceTaskWithSplit(task.ID, replacements); err != nil {
		t.Fatalf("ReplaceTaskWithSplit() error: %v", err)
	}

	if _, err := d.GetTask(task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("original task: err = %v, want ErrTaskNotFound", err)
	}
	for _, r := range replacements {
		got, err := d.GetTask(r.ID)
		if err != nil {
			t.Fatalf("GetTask(%d) error: %v", r.ID, err)
		}
		if got.Quantity != r.Quantity || len(got.Stages) != 1 {
			t.Errorf("replacement %d = %+v", r.ID, got)
		}
	}
}

func TestSeedDemo(t *testing.T) {
	d := openTestDB(t)

	if err := d.SeedDemo(); err != nil {
		t.Fatalf("SeedDemo() error: %v", err)
	}
	// Second run is a no-op, not a constraint violation.
	if err := d.SeedDemo(); err != nil {
		t.Fatalf("second SeedDemo() error: %v", err)
	}

	parts, err := d.ListParts()
	if err != nil || len(parts) != 2 {
		t.Fatalf("ListParts() = %v, %v; want 2 parts", parts, err)
	}
	machines, err := d.ListMachines()
	if err != nil || len(machines) != 4 {
		t.Fatalf("ListMachines() = %v, %v; want 4 machines", machines, err)
	}
	for _, p := range parts {
		route, err := d.GetRouteStages(p.ID)
		if err != nil || len(route) != 2 {
			t.Errorf("part %s route = %v, %v; want 2 stages", p.Code, route, err)
		}
	}
}
