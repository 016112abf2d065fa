package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS systems (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wells (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    system_id TEXT,
    status TEXT NOT NULL,
    created_at TEXT
);

CREATE TABLE IF NOT EXISTS import_rules (
    id TEXT PRIMARY KEY,
    source_pattern TEXT NOT NULL,
    action TEXT NOT NULL,
    target_ids TEXT NOT NULL,
    split_percentage REAL
);

CREATE TABLE IF NOT EXISTS raw_measurements (
    id TEXT PRIMARY KEY,
    well_id TEXT NOT NULL,
    measurement_date TEXT NOT NULL,
    measurement_time TEXT,
    value REAL NOT NULL,
    channel_name TEXT,
    file_name TEXT NOT NULL,
    imported_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_averages (
    well_id TEXT NOT NULL,
    date TEXT NOT NULL,
    metric_type TEXT NOT NULL,
    avg_value REAL NOT NULL,
    sample_count INTEGER NOT NULL,
    unit TEXT,
    PRIMARY KEY (well_id, date, metric_type)
);

CREATE TABLE IF NOT EXISTS report_entries (
    report_date TEXT NOT NULL,
    well_id TEXT NOT NULL,
    system_id TEXT,
    status TEXT,
    head_pressure REAL,
    sep_pressure REAL,
    steam_flow REAL,
    water_flow REAL,
    enthalpy REAL,
    quality REAL,
    operation_hours REAL,
    stem_distance REAL,
    temperature REAL,
    PRIMARY KEY (report_date, well_id)
);

CREATE INDEX IF NOT EXISTS idx_wells_name ON wells(name);
CREATE INDEX IF NOT EXISTS idx_raw_file ON raw_measurements(file_name);
CREATE INDEX IF NOT EXISTS idx_raw_well_date ON raw_measurements(well_id, measurement_date);
CREATE INDEX IF NOT EXISTS idx_averages_date ON daily_averages(date);
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at TEXT
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
