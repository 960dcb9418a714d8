package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/api"
	"github.com/Ilay3/ProductionScheduler/internal/app/alternatives"
	"github.com/Ilay3/ProductionScheduler/internal/app/calendar"
	"github.com/Ilay3/ProductionScheduler/internal/app/planning"
	"github.com/Ilay3/ProductionScheduler/internal/app/stagesplit"
	"github.com/Ilay3/ProductionScheduler/internal/app/tracking"
	"github.com/Ilay3/ProductionScheduler/internal/health"
	_ "github.com/Ilay3/ProductionScheduler/internal/infra/metrics" // Register Prometheus metrics
	"github.com/Ilay3/ProductionScheduler/internal/infra/sqlite"
)

// Daemon is the scheduler runtime. It wires the store, the planning
// services, and the HTTP API together.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Calendar *calendar.Calendar
	Planner  *planning.Planner
	Splitter *planning.LotSplitter
	Analyzer *alternatives.Analyzer
	Resolver *stagesplit.Resolver
	Tracker  *tracking.Tracker
	Health   *health.Checker
	Server   *api.Server

	cancel context.CancelFunc
}

// New creates and initializes a Daemon from the on-disk config.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = schedHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Storage.SeedDemo {
		if err := db.SeedDemo(); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
	}

	shifts, err := cfg.Calendar.CalendarShifts()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("calendar config: %w", err)
	}
	cal := calendar.New(shifts)

	planCfg, err := cfg.Planning.PlanningSettings()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("planning config: %w", err)
	}

	planner := planning.NewPlanner(db, cal, planCfg)
	analyzer := alternatives.NewAnalyzer(db)

	d := &Daemon{
		Config:   cfg,
		DB:       db,
		Calendar: cal,
		Planner:  planner,
		Analyzer: analyzer,
		Splitter: planning.NewLotSplitter(db, planner, analyzer, planCfg),
		Resolver: stagesplit.NewResolver(db),
		Tracker:  tracking.NewTracker(db, nil),
		Health:   health.NewChecker(db, dir),
	}

	d.Server = api.NewServer(db, api.Services{
		Calendar: d.Calendar,
		Planner:  d.Planner,
		Splitter: d.Splitter,
		Analyzer: d.Analyzer,
		Resolver: d.Resolver,
		Tracker:  d.Tracker,
	})
	d.Server.SetHealth(d.Health)
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	return d, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or
// context cancellation, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go d.Health.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] API listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		log.Printf("[daemon] received %s, shutting down", sig)
	case <-ctx.Done():
		log.Printf("[daemon] context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[daemon] shutdown: %v", err)
	}

	if err := d.DB.Close(); err != nil {
		log.Printf("[daemon] close database: %v", err)
	}
	log.Printf("[daemon] stopped")
	return nil
}

// Close releases the daemon's resources without running the server.
// Used by one-shot CLI commands.
func (d *Daemon) Close() error {
	return d.DB.Close()
}

// Stop requests a graceful shutdown of a running daemon.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}
