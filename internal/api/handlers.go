package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ilay3/ProductionScheduler/internal/app/alternatives"
	"github.com/Ilay3/ProductionScheduler/internal/app/planning"
	"github.com/Ilay3/ProductionScheduler/internal/app/stagesplit"
	"github.com/Ilay3/ProductionScheduler/internal/domain"
	"github.com/Ilay3/ProductionScheduler/internal/infra/metrics"
)

// errStatus maps domain errors onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrPartNotFound),
		errors.Is(err, domain.ErrMachineNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrStageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrNoAssignments),
		errors.Is(err, domain.ErrNoRouteStages),
		errors.Is(err, domain.ErrSplitQuantityMismatch),
		errors.Is(err, domain.ErrSplitMachineMissing),
		errors.Is(err, domain.ErrSplitTooFewParts):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func (s *Server) handleListParts(w http.ResponseWriter, r *http.Request) {
	parts, err := s.store.ListParts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"parts": parts})
}

func (s *Server) handlePartRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid part id")
		return
	}
	if _, err := s.store.GetPart(id); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	route, err := s.store.GetRouteStages(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"route": route})
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.store.ListMachines()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machines": machines})
}

func (s *Server) handleListMachineTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListMachineTypes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machine_types": types})
}

// ─── Calendar ───────────────────────────────────────────────────────────────

func (s *Server) handleShifts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"shifts": s.svc.Calendar.Shifts()})
}

func (s *Server) handleNextWorkingInstant(w http.ResponseWriter, r *http.Request) {
	at, err := time.Parse(time.RFC3339, r.URL.Query().Get("at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing 'at' (RFC3339)")
		return
	}
	next := at
	shift, inShift := s.svc.Calendar.ShiftFor(at)
	if inShift {
		next = s.svc.Calendar.NextWorkingInstant(shift, at)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"next_working_instant": next,
		"in_shift":             inShift,
	})
}

// ─── Planning ───────────────────────────────────────────────────────────────

type planRequest struct {
	PartID         int64     `json:"part_id"`
	Quantity       int       `json:"quantity"`
	PreferredStart time.Time `json:"preferred_start"`

	// Assignments pin a machine per route stage. When omitted, the
	// best machine of each stage's type is selected automatically.
	Assignments []struct {
		RouteStageID int64 `json:"route_stage_id"`
		MachineID    int64 `json:"machine_id"`
	} `json:"assignments,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	part, err := s.store.GetPart(req.PartID)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	assignments, err := s.resolveAssignments(&req)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	start := time.Now()
	plan, err := s.svc.Planner.PlanTask(*part, req.Quantity, req.PreferredStart, assignments)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	metrics.PlanningLatency.WithLabelValues("task").Observe(time.Since(start).Seconds())
	metrics.PlansComputed.WithLabelValues("task").Inc()
	for _, sp := range plan.StagePlans {
		if sp.DeferredToNextShift {
			metrics.StagesDeferred.Inc()
		}
	}

	writeJSON(w, http.StatusOK, plan)
}

// resolveAssignments turns the request's explicit assignments into
// stage assignments, or auto-selects machines when none were given.
func (s *Server) resolveAssignments(req *planRequest) ([]planning.StageAssignment, error) {
	if len(req.Assignments) > 0 {
		out := make([]planning.StageAssignment, 0, len(req.Assignments))
		for _, a := range req.Assignments {
			rs, err := s.store.GetRouteStage(a.RouteStageID)
			if err != nil {
				return nil, err
			}
			m, err := s.store.GetMachine(a.MachineID)
			if err != nil {
				return nil, err
			}
			out = append(out, planning.StageAssignment{RouteStage: *rs, Machine: *m})
		}
		return out, nil
	}

	route, err := s.store.GetRouteStages(req.PartID)
	if err != nil {
		return nil, err
	}
	if len(route) == 0 {
		return nil, domain.ErrNoRouteStages
	}

	out := make([]planning.StageAssignment, 0, len(route))
	for _, rs := range route {
		m, err := s.svc.Analyzer.SelectBest(rs, req.PreferredStart)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, domain.ErrMachineNotFound
		}
		metrics.AlternativeSelections.WithLabelValues("auto").Inc()
		out = append(out, planning.StageAssignment{RouteStage: rs, Machine: *m})
	}
	return out, nil
}

type lotPlanRequest struct {
	PartID            int64     `json:"part_id"`
	TotalQuantity     int       `json:"total_quantity"`
	PreferredStart    time.Time `json:"preferred_start"`
	MaxLotSize        int       `json:"max_lot_size"`
	AllowAlternatives bool      `json:"allow_alternatives"`
}

func (s *Server) handlePlanLots(w http.ResponseWriter, r *http.Request) {
	var req lotPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	res, err := s.svc.Splitter.PlanWithSplitting(req.PartID, req.TotalQuantity,
		req.PreferredStart, req.MaxLotSize, req.AllowAlternatives)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	metrics.PlanningLatency.WithLabelValues("lots").Observe(time.Since(start).Seconds())
	metrics.PlansComputed.WithLabelValues("lots").Inc()
	metrics.LotWarnings.Add(float64(len(res.Warnings)))

	writeJSON(w, http.StatusOK, res)
}

// ─── Conflicts & Alternatives ───────────────────────────────────────────────

type conflictCheckRequest struct {
	Bookings []struct {
		RouteStageID int64     `json:"route_stage_id"`
		MachineID    int64     `json:"machine_id"`
		Start        time.Time `json:"start"`
		End          time.Time `json:"end"`
	} `json:"bookings"`
}

func (s *Server) handleConflictCheck(w http.ResponseWriter, r *http.Request) {
	var req conflictCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Bookings) == 0 {
		writeError(w, http.StatusBadRequest, "no bookings to check")
		return
	}

	bookings := make([]alternatives.StageBooking, 0, len(req.Bookings))
	for _, b := range req.Bookings {
		rs, err := s.store.GetRouteStage(b.RouteStageID)
		if err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
		m, err := s.store.GetMachine(b.MachineID)
		if err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
		bookings = append(bookings, alternatives.StageBooking{
			RouteStage: *rs,
			Machine:    *m,
			Window:     alternatives.Window{Start: b.Start, End: b.End},
		})
	}

	analysis, err := s.svc.Analyzer.Analyze(bookings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ConflictsDetected.Add(float64(len(analysis.Conflicts)))

	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	rsID, err := strconv.ParseInt(r.URL.Query().Get("route_stage_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid route_stage_id")
		return
	}
	at, err := time.Parse(time.RFC3339, r.URL.Query().Get("at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing 'at' (RFC3339)")
		return
	}

	rs, err := s.store.GetRouteStage(rsID)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	ranked, err := s.svc.Analyzer.RankAlternatives(*rs, at)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alternatives": ranked})
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

type createTaskRequest struct {
	PartID   int64  `json:"part_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	task, err := s.svc.Tracker.CreateTask(req.PartID, req.Quantity, req.Notes)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	metrics.TasksCreated.Inc()

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	status := domain.Status(r.URL.Query().Get("status"))

	tasks, err := s.store.ListTasks(status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskTransition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}

		prev := domain.Status("")
		if before, err := s.store.GetTask(id); err == nil {
			prev = before.Status
		}

		var (
			task *domain.Task
			err  error
		)
		switch action {
		case "start":
			task, err = s.svc.Tracker.StartTask(id)
		case "pause":
			task, err = s.svc.Tracker.PauseTask(id)
		case "complete":
			task, err = s.svc.Tracker.CompleteTask(id)
		case "cancel":
			task, err = s.svc.Tracker.CancelTask(id)
		}
		if err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
		metrics.TaskTransitions.WithLabelValues(string(task.Status)).Inc()
		switch {
		case task.Status == domain.StatusInProgress && prev != domain.StatusInProgress:
			metrics.TasksActive.Inc()
		case prev == domain.StatusInProgress && task.Status != domain.StatusInProgress:
			metrics.TasksActive.Dec()
		}

		writeJSON(w, http.StatusOK, task)
	}
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	stats, err := s.svc.Tracker.Statistics(id)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ─── Stages ─────────────────────────────────────────────────────────────────

type splitRequest struct {
	Mode  stagesplit.Mode   `json:"mode"`
	Parts []stagesplit.Part `json:"parts"`
}

func (s *Server) handleStageSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid stage id")
		return
	}
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.svc.Resolver.SplitStage(id, req.Parts, req.Mode)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	metrics.StageSplits.WithLabelValues(string(req.Mode)).Inc()

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStageTransition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid stage id")
			return
		}

		var (
			stage *domain.TaskStage
			err   error
		)
		switch action {
		case "start":
			stage, err = s.svc.Tracker.StartStage(id)
		case "pause":
			stage, err = s.svc.Tracker.PauseStage(id)
		case "complete":
			stage, err = s.svc.Tracker.CompleteStage(id)
		}
		if err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stage)
	}
}

func (s *Server) handleStageDuration(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid stage id")
		return
	}
	d, err := s.svc.Tracker.CurrentDuration(id)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_duration_seconds": d.Seconds(),
	})
}

func (s *Server) handleStageDeviation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid stage id")
		return
	}
	pct, err := s.svc.Tracker.DeviationPercent(id)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deviation_percent": pct,
	})
}
