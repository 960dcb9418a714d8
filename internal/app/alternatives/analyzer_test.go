package alternatives

import (
	"testing"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/domain"
)

type fakeStore struct {
	machinesByType  map[int64][]domain.Machine
	activeByMachine map[int64][]domain.TaskStage
}

func (s *fakeStore) GetPart(id int64) (*domain.Part, error) { return nil, domain.ErrPartNotFound }

func (s *fakeStore) GetRouteStages(partID int64) ([]domain.RouteStage, error) { return nil, nil }

func (s *fakeStore) GetMachinesByType(typeID int64) ([]domain.Machine, error) {
	return s.machinesByType[typeID], nil
}

func (s *fakeStore) GetActiveStagesOnMachine(machineID int64) ([]domain.TaskStage, error) {
	return s.activeByMachine[machineID], nil
}

func (s *fakeStore) GetLastCompletedStageOnMachine(machineID int64) (*domain.TaskStage, error) {
	return nil, nil
}

func (s *fakeStore) GetPartOfTask(taskID int64) (int64, error) { return 0, domain.ErrTaskNotFound }

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

// booked returns an in-progress stage occupying [start, end) with the
// matching planned duration.
func booked(id int64, start, end time.Time) domain.TaskStage {
	return domain.TaskStage{
		ID:               id,
		Status:           domain.StatusInProgress,
		PlannedStartTime: &start,
		PlannedEndTime:   &end,
		PlannedDuration:  end.Sub(start),
	}
}

func TestDetectConflict(t *testing.T) {
	lathe := domain.Machine{ID: 1, Name: "Lathe-001", MachineTypeID: 1}
	rs := domain.RouteStage{ID: 1, OperationName: "Turning", MachineTypeID: 1, StandardTimePerUnit: 0.5}

	store := &fakeStore{
		activeByMachine: map[int64][]domain.TaskStage{
			1: {booked(100, at(9, 0), at(11, 0))},
		},
	}
	a := NewAnalyzer(store)

	t.Run("overlapping window", func(t *testing.T) {
		c, err := a.DetectConflict(rs, lathe, Window{Start: at(8, 0), End: at(10, 0)})
		if err != nil {
			t.Fatalf("DetectConflict() error: %v", err)
		}
		if c == nil {
			t.Fatal("DetectConflict() = nil, want a conflict")
		}
		if c.ConflictingStage.ID != 100 {
			t.Errorf("ConflictingStage.ID = %d, want 100", c.ConflictingStage.ID)
		}
		if want := 3 * time.Hour; c.SuggestedWait != want {
			t.Errorf("SuggestedWait = %v, want %v", c.SuggestedWait, want)
		}
	})

	t.Run("touching boundary is not a conflict", func(t *testing.T) {
		c, err := a.DetectConflict(rs, lathe, Window{Start: at(11, 0), End: at(12, 0)})
		if err != nil {
			t.Fatalf("DetectConflict() error: %v", err)
		}
		if c != nil {
			t.Errorf("DetectConflict() = %+v, want nil for a window starting at the booking's end", c)
		}
	})

	t.Run("earliest overlapping booking wins", func(t *testing.T) {
		store.activeByMachine[1] = []domain.TaskStage{
			booked(101, at(10, 0), at(12, 0)),
			booked(100, at(9, 0), at(11, 0)),
		}
		c, err := a.DetectConflict(rs, lathe, Window{Start: at(8, 0), End: at(13, 0)})
		if err != nil {
			t.Fatalf("DetectConflict() error: %v", err)
		}
		if c == nil || c.ConflictingStage.ID != 100 {
			t.Fatalf("conflict = %+v, want the 09:00 booking", c)
		}
	})
}

func TestRankAlternatives(t *testing.T) {
	rs := domain.RouteStage{ID: 1, OperationName: "Turning", MachineTypeID: 1, StandardTimePerUnit: 0.5}
	busy := booked(100, at(9, 0), at(11, 0))

	store := &fakeStore{
		machinesByType: map[int64][]domain.Machine{
			1: {
				{ID: 1, Name: "Lathe-001", MachineTypeID: 1},
				{ID: 2, Name: "Lathe-002", MachineTypeID: 1},
			},
		},
		activeByMachine: map[int64][]domain.TaskStage{
			1: {busy},
		},
	}
	a := NewAnalyzer(store)

	ranked, err := a.RankAlternatives(rs, at(10, 0))
	if err != nil {
		t.Fatalf("RankAlternatives() error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("len(ranked) = %d, want 2", len(ranked))
	}

	// The idle lathe ranks first on the availability bonus.
	best := ranked[0]
	if best.Machine.ID != 2 || !best.Available || best.Priority != availableNowBonus {
		t.Errorf("ranked[0] = %+v, want idle Lathe-002 with priority %d", best, availableNowBonus)
	}

	second := ranked[1]
	if second.Available {
		t.Error("ranked[1].Available = true, want false for the busy lathe")
	}
	if !second.EarliestAvailable.Equal(at(11, 0)) {
		t.Errorf("ranked[1].EarliestAvailable = %v, want 11:00", second.EarliestAvailable)
	}
	// 2h of commitment over a 24h horizon, scaled by the load weight.
	if want := 4; second.Priority != want {
		t.Errorf("ranked[1].Priority = %d, want %d", second.Priority, want)
	}
}

func TestRankAlternatives_NoMachines(t *testing.T) {
	a := NewAnalyzer(&fakeStore{})
	rs := domain.RouteStage{ID: 1, MachineTypeID: 7}

	ranked, err := a.RankAlternatives(rs, at(8, 0))
	if err != nil {
		t.Fatalf("RankAlternatives() error: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("len(ranked) = %d, want 0 when the type has no machines", len(ranked))
	}
}

func TestSelectBest(t *testing.T) {
	rs := domain.RouteStage{ID: 1, MachineTypeID: 1, StandardTimePerUnit: 0.5}

	t.Run("prefers an available machine", func(t *testing.T) {
		store := &fakeStore{
			machinesByType: map[int64][]domain.Machine{
				1: {{ID: 1, MachineTypeID: 1}, {ID: 2, MachineTypeID: 1}},
			},
			activeByMachine: map[int64][]domain.TaskStage{
				1: {booked(100, at(9, 0), at(11, 0))},
			},
		}
		m, err := NewAnalyzer(store).SelectBest(rs, at(10, 0))
		if err != nil {
			t.Fatalf("SelectBest() error: %v", err)
		}
		if m == nil || m.ID != 2 {
			t.Errorf("SelectBest() = %+v, want machine 2", m)
		}
	})

	t.Run("falls back to the top-ranked busy machine", func(t *testing.T) {
		store := &fakeStore{
			machinesByType: map[int64][]domain.Machine{
				1: {{ID: 1, MachineTypeID: 1}},
			},
			activeByMachine: map[int64][]domain.TaskStage{
				1: {booked(100, at(9, 0), at(11, 0))},
			},
		}
		m, err := NewAnalyzer(store).SelectBest(rs, at(10, 0))
		if err != nil {
			t.Fatalf("SelectBest() error: %v", err)
		}
		if m == nil || m.ID != 1 {
			t.Errorf("SelectBest() = %+v, want the only machine", m)
		}
	})

	t.Run("no machine of the type", func(t *testing.T) {
		m, err := NewAnalyzer(&fakeStore{}).SelectBest(rs, at(10, 0))
		if err != nil {
			t.Fatalf("SelectBest() error: %v", err)
		}
		if m != nil {
			t.Errorf("SelectBest() = %+v, want nil", m)
		}
	})
}

func TestAnalyze(t *testing.T) {
	lathe1 := domain.Machine{ID: 1, Name: "Lathe-001", MachineTypeID: 1}
	lathe2 := domain.Machine{ID: 2, Name: "Lathe-002", MachineTypeID: 1}
	rs := domain.RouteStage{ID: 1, OperationName: "Turning", MachineTypeID: 1, StandardTimePerUnit: 0.5}

	store := &fakeStore{
		machinesByType: map[int64][]domain.Machine{1: {lathe1, lathe2}},
		activeByMachine: map[int64][]domain.TaskStage{
			1: {booked(100, at(9, 0), at(11, 0))},
		},
	}
	a := NewAnalyzer(store)

	res, err := a.Analyze([]StageBooking{
		{RouteStage: rs, Machine: lathe1, Window: Window{Start: at(8, 0), End: at(10, 0)}},
		{RouteStage: rs, Machine: lathe2, Window: Window{Start: at(8, 0), End: at(10, 0)}},
	})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if !res.HasConflicts || len(res.Conflicts) != 1 {
		t.Fatalf("Analyze() = %+v, want exactly one conflict", res)
	}
	if len(res.Alternatives) == 0 {
		t.Error("Analyze() returned no alternatives for the conflicted stage")
	}
}
