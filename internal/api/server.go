// Package api provides the HTTP server for the scheduler. It exposes
// planning, conflict analysis, stage splitting, task tracking, and
// catalog reads as a JSON REST API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ilay3/ProductionScheduler/internal/app/alternatives"
	"github.com/Ilay3/ProductionScheduler/internal/app/calendar"
	"github.com/Ilay3/ProductionScheduler/internal/app/planning"
	"github.com/Ilay3/ProductionScheduler/internal/app/stagesplit"
	"github.com/Ilay3/ProductionScheduler/internal/app/tracking"
	"github.com/Ilay3/ProductionScheduler/internal/health"
	"github.com/Ilay3/ProductionScheduler/internal/infra/sqlite"
)

// Services bundles the application services the API exposes.
type Services struct {
	Calendar *calendar.Calendar
	Planner  *planning.Planner
	Splitter *planning.LotSplitter
	Analyzer *alternatives.Analyzer
	Resolver *stagesplit.Resolver
	Tracker  *tracking.Tracker
}

// Server is the scheduler HTTP API server.
type Server struct {
	store          *sqlite.DB
	svc            Services
	checker        *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(store *sqlite.DB, svc Services) *Server {
	return &Server{store: store, svc: svc}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches a checker so /health reports probe results.
func (s *Server) SetHealth(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.checker == nil {
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "ok",
			})
			return
		}
		status, code := "ok", http.StatusOK
		if !s.checker.IsHealthy() {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status": status,
			"checks": s.checker.Statuses(),
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": "0.1.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog
		r.Get("/parts", s.handleListParts)
		r.Get("/parts/{id}/route", s.handlePartRoute)
		r.Get("/machines", s.handleListMachines)
		r.Get("/machine-types", s.handleListMachineTypes)

		// Calendar
		r.Get("/calendar/shifts", s.handleShifts)
		r.Get("/calendar/next-working-instant", s.handleNextWorkingInstant)

		// Planning
		r.Post("/plan", s.handlePlan)
		r.Post("/plan/lots", s.handlePlanLots)

		// Conflicts & alternatives
		r.Post("/conflicts/check", s.handleConflictCheck)
		r.Get("/alternatives", s.handleAlternatives)

		// Tasks & tracking
		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Post("/tasks/{id}/start", s.handleTaskTransition("start"))
		r.Post("/tasks/{id}/pause", s.handleTaskTransition("pause"))
		r.Post("/tasks/{id}/complete", s.handleTaskTransition("complete"))
		r.Post("/tasks/{id}/cancel", s.handleTaskTransition("cancel"))
		r.Get("/tasks/{id}/statistics", s.handleStatistics)

		// Stages
		r.Post("/stages/{id}/split", s.handleStageSplit)
		r.Post("/stages/{id}/start", s.handleStageTransition("start"))
		r.Post("/stages/{id}/pause", s.handleStageTransition("pause"))
		r.Post("/stages/{id}/complete", s.handleStageTransition("complete"))
		r.Get("/stages/{id}/duration", s.handleStageDuration)
		r.Get("/stages/{id}/deviation", s.handleStageDeviation)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
