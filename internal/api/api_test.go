package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Ilay3/ProductionScheduler/internal/app/alternatives"
	"github.com/Ilay3/ProductionScheduler/internal/app/calendar"
	"github.com/Ilay3/ProductionScheduler/internal/app/planning"
	"github.com/Ilay3/ProductionScheduler/internal/app/stagesplit"
	"github.com/Ilay3/ProductionScheduler/internal/app/tracking"
	"github.com/Ilay3/ProductionScheduler/internal/domain"
	"github.com/Ilay3/ProductionScheduler/internal/infra/metrics"
	"github.com/Ilay3/ProductionScheduler/internal/infra/sqlite"
)

// newTestServer spins up the full API over a seeded temp database.
func newTestServer(t *testing.T) (*httptest.Server, *sqlite.DB) {
	t.Helper()

	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.SeedDemo(); err != nil {
		t.Fatalf("SeedDemo() error: %v", err)
	}

	cal := calendar.Standard()
	cfg := planning.DefaultConfig()
	planner := planning.NewPlanner(db, cal, cfg)
	analyzer := alternatives.NewAnalyzer(db)
	splitter := planning.NewLotSplitter(db, planner, analyzer, cfg)

	srv := NewServer(db, Services{
		Calendar: cal,
		Planner:  planner,
		Splitter: splitter,
		Analyzer: analyzer,
		Resolver: stagesplit.NewResolver(db),
		Tracker:  tracking.NewTracker(db, nil),
	})
	srv.EnableMetrics()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func getJSON(t *testing.T, ts *httptest.Server, path string, wantStatus int, out interface{}) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := http.Post(ts.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

// shaftPart returns the seeded drive shaft's id.
func shaftPart(t *testing.T, db *sqlite.DB) int64 {
	t.Helper()
	parts, err := db.ListParts()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range parts {
		if p.Code == "VAL-001" {
			return p.ID
		}
	}
	t.Fatal("seeded part VAL-001 not found")
	return 0
}

func TestHealthAndVersion(t *testing.T) {
	ts, _ := newTestServer(t)

	var health map[string]string
	getJSON(t, ts, "/health", http.StatusOK, &health)
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
	getJSON(t, ts, "/api/version", http.StatusOK, nil)
	getJSON(t, ts, "/metrics", http.StatusOK, nil)
}

func TestCatalogEndpoints(t *testing.T) {
	ts, db := newTestServer(t)
	partID := shaftPart(t, db)

	var parts struct {
		Parts []domain.Part `json:"parts"`
	}
	getJSON(t, ts, "/api/v1/parts", http.StatusOK, &parts)
	if len(parts.Parts) != 2 {
		t.Errorf("len(parts) = %d, want 2", len(parts.Parts))
	}

	var route struct {
		Route []domain.RouteStage `json:"route"`
	}
	getJSON(t, ts, fmt.Sprintf("/api/v1/parts/%d/route", partID), http.StatusOK, &route)
	if len(route.Route) != 2 {
		t.Errorf("len(route) = %d, want 2", len(route.Route))
	}

	getJSON(t, ts, "/api/v1/parts/999/route", http.StatusNotFound, nil)

	var shifts struct {
		Shifts []calendar.Shift `json:"shifts"`
	}
	getJSON(t, ts, "/api/v1/calendar/shifts", http.StatusOK, &shifts)
	if len(shifts.Shifts) != 3 {
		t.Errorf("len(shifts) = %d, want 3", len(shifts.Shifts))
	}
}

func TestNextWorkingInstantEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	var resp struct {
		Next    time.Time `json:"next_working_instant"`
		InShift bool      `json:"in_shift"`
	}

	// 12:30 falls inside the first shift's break: resume at 13:00.
	getJSON(t, ts, "/api/v1/calendar/next-working-instant?at=2025-06-02T12:30:00Z", http.StatusOK, &resp)
	if !resp.InShift {
		t.Error("in_shift = false at 12:30, want true")
	}
	if want := time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC); !resp.Next.Equal(want) {
		t.Errorf("next_working_instant = %v, want %v", resp.Next, want)
	}

	// 05:00 is covered by no shift: the instant comes back unchanged.
	getJSON(t, ts, "/api/v1/calendar/next-working-instant?at=2025-06-02T05:00:00Z", http.StatusOK, &resp)
	if resp.InShift {
		t.Error("in_shift = true at 05:00, want false")
	}
	if want := time.Date(2025, 6, 2, 5, 0, 0, 0, time.UTC); !resp.Next.Equal(want) {
		t.Errorf("next_working_instant = %v, want %v", resp.Next, want)
	}

	getJSON(t, ts, "/api/v1/calendar/next-working-instant?at=noon", http.StatusBadRequest, nil)
}

func TestPlanEndpoint(t *testing.T) {
	ts, db := newTestServer(t)
	partID := shaftPart(t, db)

	var plan planning.Plan
	postJSON(t, ts, "/api/v1/plan", map[string]interface{}{
		"part_id":         partID,
		"quantity":        10,
		"preferred_start": "2025-06-02T08:00:00Z",
	}, http.StatusOK, &plan)

	if len(plan.StagePlans) != 2 {
		t.Fatalf("len(StagePlans) = %d, want 2", len(plan.StagePlans))
	}
	want := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	if !plan.PlannedEndTime.Equal(want) {
		t.Errorf("PlannedEndTime = %v, want %v", plan.PlannedEndTime, want)
	}

	// Unknown part.
	postJSON(t, ts, "/api/v1/plan", map[string]interface{}{
		"part_id": 999, "quantity": 10, "preferred_start": "2025-06-02T08:00:00Z",
	}, http.StatusNotFound, nil)

	// Invalid quantity.
	postJSON(t, ts, "/api/v1/plan", map[string]interface{}{
		"part_id": partID, "quantity": 0, "preferred_start": "2025-06-02T08:00:00Z",
	}, http.StatusBadRequest, nil)
}

func TestPlanLotsEndpoint(t *testing.T) {
	ts, db := newTestServer(t)
	partID := shaftPart(t, db)

	var res planning.SplitPlanResult
	postJSON(t, ts, "/api/v1/plan/lots", map[string]interface{}{
		"part_id":         partID,
		"total_quantity":  25,
		"preferred_start": "2025-06-02T08:00:00Z",
		"max_lot_size":    10,
	}, http.StatusOK, &res)

	if len(res.LotSizes) != 3 || res.LotSizes[2] != 5 {
		t.Errorf("LotSizes = %v, want [10 10 5]", res.LotSizes)
	}
	if len(res.Lots) != 3 {
		t.Errorf("len(Lots) = %d, want 3", len(res.Lots))
	}
}

func TestConflictEndpoints(t *testing.T) {
	ts, db := newTestServer(t)
	partID := shaftPart(t, db)
	route, err := db.GetRouteStages(partID)
	if err != nil {
		t.Fatal(err)
	}
	machines, err := db.GetMachinesByType(route[0].MachineTypeID)
	if err != nil || len(machines) == 0 {
		t.Fatalf("no machines for type %d: %v", route[0].MachineTypeID, err)
	}

	var analysis alternatives.ConflictAnalysis
	postJSON(t, ts, "/api/v1/conflicts/check", map[string]interface{}{
		"bookings": []map[string]interface{}{{
			"route_stage_id": route[0].ID,
			"machine_id":     machines[0].ID,
			"start":          "2025-06-02T08:00:00Z",
			"end":            "2025-06-02T13:00:00Z",
		}},
	}, http.StatusOK, &analysis)
	if analysis.HasConflicts {
		t.Errorf("unexpected conflicts on an idle machine: %+v", analysis)
	}

	var alts struct {
		Alternatives []alternatives.MachineAlternative `json:"alternatives"`
	}
	getJSON(t, ts, fmt.Sprintf("/api/v1/alternatives?route_stage_id=%d&at=2025-06-02T08:00:00Z", route[0].ID),
		http.StatusOK, &alts)
	if len(alts.Alternatives) != len(machines) {
		t.Errorf("len(alternatives) = %d, want %d", len(alts.Alternatives), len(machines))
	}
}

func TestTaskLifecycleEndpoints(t *testing.T) {
	ts, db := newTestServer(t)
	partID := shaftPart(t, db)

	var task domain.Task
	postJSON(t, ts, "/api/v1/tasks", map[string]interface{}{
		"part_id": partID, "quantity": 10, "notes": "order 42",
	}, http.StatusCreated, &task)
	if task.ID == 0 || len(task.Stages) != 2 {
		t.Fatalf("created task = %+v", task)
	}

	base := fmt.Sprintf("/api/v1/tasks/%d", task.ID)

	// Completing a planned task is an invalid transition.
	postJSON(t, ts, base+"/complete", nil, http.StatusConflict, nil)

	active := testutil.ToFloat64(metrics.TasksActive)

	postJSON(t, ts, base+"/start", nil, http.StatusOK, &task)
	if task.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", task.Status)
	}
	if got := testutil.ToFloat64(metrics.TasksActive); got != active+1 {
		t.Errorf("tasks_active after start = %v, want %v", got, active+1)
	}

	postJSON(t, ts, base+"/pause", nil, http.StatusOK, &task)
	if got := testutil.ToFloat64(metrics.TasksActive); got != active {
		t.Errorf("tasks_active after pause = %v, want %v", got, active)
	}
	postJSON(t, ts, base+"/start", nil, http.StatusOK, &task)

	postJSON(t, ts, base+"/complete", nil, http.StatusOK, &task)
	if task.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", task.Status)
	}
	if got := testutil.ToFloat64(metrics.TasksActive); got != active {
		t.Errorf("tasks_active after complete = %v, want %v", got, active)
	}

	var stats tracking.TaskStatistics
	getJSON(t, ts, base+"/statistics", http.StatusOK, &stats)
	if stats.TaskID != task.ID || len(stats.Stages) != 2 {
		t.Errorf("statistics = %+v", stats)
	}

	var listed struct {
		Tasks []domain.Task `json:"tasks"`
	}
	getJSON(t, ts, "/api/v1/tasks?status=COMPLETED", http.StatusOK, &listed)
	if len(listed.Tasks) != 1 {
		t.Errorf("len(completed tasks) = %d, want 1", len(listed.Tasks))
	}
}

func TestStageSplitEndpoint(t *testing.T) {
	ts, db := newTestServer(t)
	partID := shaftPart(t, db)

	var task domain.Task
	postJSON(t, ts, "/api/v1/tasks", map[string]interface{}{
		"part_id": partID, "quantity": 20,
	}, http.StatusCreated, &task)

	// The turning stage can run on either lathe.
	route, err := db.GetRouteStages(partID)
	if err != nil {
		t.Fatal(err)
	}
	lathes, err := db.GetMachinesByType(route[0].MachineTypeID)
	if err != nil || len(lathes) < 2 {
		t.Fatalf("want 2 seeded lathes, got %v (%v)", lathes, err)
	}

	stageID := task.Stages[0].ID
	var res stagesplit.Result
	postJSON(t, ts, fmt.Sprintf("/api/v1/stages/%d/split", stageID), map[string]interface{}{
		"mode": "withinSameTask",
		"parts": []map[string]interface{}{
			{"quantity": 10, "machine_id": lathes[0].ID},
			{"quantity": 10, "machine_id": lathes[1].ID},
		},
	}, http.StatusOK, &res)

	if res.UpdatedStage == nil || res.UpdatedStage.QuantityToProcess != 10 {
		t.Fatalf("updated stage = %+v", res.UpdatedStage)
	}

	var got domain.Task
	getJSON(t, ts, fmt.Sprintf("/api/v1/tasks/%d", task.ID), http.StatusOK, &got)
	if len(got.Stages) != 3 {
		t.Errorf("len(Stages) after split = %d, want 3", len(got.Stages))
	}

	// A mismatched split fails and changes nothing.
	postJSON(t, ts, fmt.Sprintf("/api/v1/stages/%d/split", stageID), map[string]interface{}{
		"mode": "withinSameTask",
		"parts": []map[string]interface{}{
			{"quantity": 3, "machine_id": lathes[0].ID},
			{"quantity": 3, "machine_id": lathes[1].ID},
		},
	}, http.StatusBadRequest, nil)
}
