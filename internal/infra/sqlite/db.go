// Package sqlite provides SQLite-based persistent storage for the
// scheduler: catalogs (parts, routes, machines) and tasks with their
// stages. Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations. It
// implements the domain store interfaces the planning core consumes.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/scheduler.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "scheduler.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Catalog
		`CREATE TABLE IF NOT EXISTS machine_types (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS machines (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT NOT NULL UNIQUE,
			machine_type_id INTEGER NOT NULL REFERENCES machine_types(id)
		)`,
		`CREATE TABLE IF NOT EXISTS parts (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			code TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS route_stages (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			part_id                INTEGER NOT NULL REFERENCES parts(id),
			operation_number       TEXT NOT NULL,
			operation_name         TEXT NOT NULL,
			machine_type_id        INTEGER NOT NULL REFERENCES machine_types(id),
			standard_time_per_unit REAL NOT NULL,
			order_in_route         INTEGER NOT NULL,
			UNIQUE(part_id, order_in_route)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_route_part ON route_stages(part_id)`,

		// Tasks and their execution stages
		`CREATE TABLE IF NOT EXISTS tasks (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			ref           TEXT NOT NULL UNIQUE,
			part_id       INTEGER NOT NULL REFERENCES parts(id),
			quantity      INTEGER NOT NULL,
			creation_time INTEGER NOT NULL,
			planned_start INTEGER,
			planned_end   INTEGER,
			actual_start  INTEGER,
			actual_end    INTEGER,
			status        TEXT NOT NULL,
			notes         TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE TABLE IF NOT EXISTS task_stages (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id             INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			route_stage_id      INTEGER NOT NULL REFERENCES route_stages(id),
			machine_id          INTEGER REFERENCES machines(id),
			quantity            INTEGER NOT NULL,
			order_in_task       INTEGER NOT NULL,
			planned_start       INTEGER,
			planned_end         INTEGER,
			planned_duration_ns INTEGER NOT NULL DEFAULT 0,
			planned_setup_hours REAL NOT NULL DEFAULT 0,
			actual_start        INTEGER,
			actual_end          INTEGER,
			actual_duration_ns  INTEGER NOT NULL DEFAULT 0,
			status              TEXT NOT NULL,
			std_time_per_unit   REAL NOT NULL DEFAULT 0,
			parent_stage_id     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_task ON task_stages(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_machine ON task_stages(machine_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_status ON task_stages(status)`,
	}

	for i, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
