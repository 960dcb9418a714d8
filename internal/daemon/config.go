// Package daemon manages the scheduler daemon lifecycle and
// configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Ilay3/ProductionScheduler/internal/app/calendar"
	"github.com/Ilay3/ProductionScheduler/internal/app/planning"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig      `toml:"api"`
	Storage   StorageConfig  `toml:"storage"`
	Calendar  CalendarConfig `toml:"calendar"`
	Planning  PlanningConfig `toml:"planning"`
	Telemetry Telemetry      `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls where the SQLite database lives.
type StorageConfig struct {
	Dir      string `toml:"dir"`
	SeedDemo bool   `toml:"seed_demo"`
}

// CalendarConfig carries the shift windows as data. ShiftConfig times
// are "HH:MM" clock offsets from midnight.
type CalendarConfig struct {
	Shifts []ShiftConfig `toml:"shifts"`
}

// ShiftConfig is one recurring daily shift.
type ShiftConfig struct {
	ID         int    `toml:"id"`
	Type       int    `toml:"type"`
	Name       string `toml:"name"`
	Start      string `toml:"start"`
	End        string `toml:"end"`
	BreakStart string `toml:"break_start"`
	BreakEnd   string `toml:"break_end"`

	RunsToMidnight       bool    `toml:"runs_to_midnight"`
	WorkingHoursOverride float64 `toml:"working_hours_override"`
}

// PlanningConfig controls the planning core.
type PlanningConfig struct {
	PreferredStart      string `toml:"preferred_start"`
	PreferredEnd        string `toml:"preferred_end"`
	PreferredBreakStart string `toml:"preferred_break_start"`
	PreferredBreakEnd   string `toml:"preferred_break_end"`

	ChangeoverMinutes  int `toml:"changeover_minutes"`
	InterLotBufferMins int `toml:"inter_lot_buffer_minutes"`
	DefaultMaxLotSize  int `toml:"default_max_lot_size"`
}

// Telemetry toggles observability endpoints.
type Telemetry struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns the standard three-shift configuration with
// production planning defaults.
func DefaultConfig() Config {
	var shifts []ShiftConfig
	for _, s := range calendar.StandardShifts() {
		shifts = append(shifts, ShiftConfig{
			ID:                   s.ID,
			Type:                 int(s.Type),
			Name:                 s.Name,
			Start:                formatClock(s.Start),
			End:                  formatClock(s.End),
			BreakStart:           formatClock(s.BreakStart),
			BreakEnd:             formatClock(s.BreakEnd),
			RunsToMidnight:       s.RunsToMidnight,
			WorkingHoursOverride: s.WorkingHoursOverride,
		})
	}

	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8321,
		},
		Storage: StorageConfig{
			Dir:      schedHome(),
			SeedDemo: false,
		},
		Calendar: CalendarConfig{Shifts: shifts},
		Planning: PlanningConfig{
			PreferredStart:      "08:00",
			PreferredEnd:        "17:00",
			PreferredBreakStart: "12:00",
			PreferredBreakEnd:   "13:00",
			ChangeoverMinutes:   10,
			InterLotBufferMins:  15,
			DefaultMaxLotSize:   10,
		},
		Telemetry: Telemetry{Prometheus: true},
	}
}

// LoadConfig reads config from $PRODSCHED_HOME/config.toml, falling
// back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(schedHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $PRODSCHED_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(schedHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// CalendarShifts converts the configured shifts into calendar shifts.
// An empty configuration yields the standard three shifts.
func (c CalendarConfig) CalendarShifts() ([]calendar.Shift, error) {
	if len(c.Shifts) == 0 {
		return calendar.StandardShifts(), nil
	}

	shifts := make([]calendar.Shift, 0, len(c.Shifts))
	for _, sc := range c.Shifts {
		s := calendar.Shift{
			ID:                   sc.ID,
			Type:                 calendar.ShiftType(sc.Type),
			Name:                 sc.Name,
			RunsToMidnight:       sc.RunsToMidnight,
			WorkingHoursOverride: sc.WorkingHoursOverride,
		}
		var err error
		if s.Start, err = parseClock(sc.Start); err != nil {
			return nil, fmt.Errorf("shift %d start: %w", sc.ID, err)
		}
		if s.End, err = parseClock(sc.End); err != nil {
			return nil, fmt.Errorf("shift %d end: %w", sc.ID, err)
		}
		if s.BreakStart, err = parseClock(sc.BreakStart); err != nil {
			return nil, fmt.Errorf("shift %d break start: %w", sc.ID, err)
		}
		if s.BreakEnd, err = parseClock(sc.BreakEnd); err != nil {
			return nil, fmt.Errorf("shift %d break end: %w", sc.ID, err)
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}

// PlanningSettings converts the planning section into the core config.
func (c PlanningConfig) PlanningSettings() (planning.Config, error) {
	cfg := planning.DefaultConfig()

	var err error
	if cfg.Preferred.Start, err = parseClock(c.PreferredStart); err != nil {
		return cfg, fmt.Errorf("preferred start: %w", err)
	}
	if cfg.Preferred.End, err = parseClock(c.PreferredEnd); err != nil {
		return cfg, fmt.Errorf("preferred end: %w", err)
	}
	if cfg.Preferred.BreakStart, err = parseClock(c.PreferredBreakStart); err != nil {
		return cfg, fmt.Errorf("preferred break start: %w", err)
	}
	if cfg.Preferred.BreakEnd, err = parseClock(c.PreferredBreakEnd); err != nil {
		return cfg, fmt.Errorf("preferred break end: %w", err)
	}

	if c.ChangeoverMinutes > 0 {
		cfg.ChangeoverHours = float64(c.ChangeoverMinutes) / 60.0
	}
	if c.InterLotBufferMins > 0 {
		cfg.InterLotBuffer = time.Duration(c.InterLotBufferMins) * time.Minute
	}
	if c.DefaultMaxLotSize > 0 {
		cfg.DefaultMaxLotSize = c.DefaultMaxLotSize
	}
	return cfg, nil
}

// parseClock converts "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// schedHome returns the scheduler data directory.
func schedHome() string {
	if env := os.Getenv("PRODSCHED_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".prodsched")
}

// Home is exported for use by other packages.
func Home() string {
	return schedHome()
}
