// Package store is the sqlite-backed storage collaborator for the
// measurement pipeline and report synthesizer.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/geocampo/wellflow/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListWells() ([]models.Well, error) {
	rows, err := s.db.Query(`SELECT id, name, type, system_id, status, created_at FROM wells ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wells []models.Well
	for rows.Next() {
		var w models.Well
		var createdAt sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &w.Type, &w.SystemID, &w.Status, &createdAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
		}
		wells = append(wells, w)
	}
	return wells, rows.Err()
}

func (s *Store) SaveWell(w models.Well) error {
	createdAt := ""
	if !w.CreatedAt.IsZero() {
		createdAt = w.CreatedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT INTO wells (id, name, type, system_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			system_id = excluded.system_id,
			status = excluded.status
	`, w.ID, w.Name, w.Type, w.SystemID, w.Status, createdAt)
	return err
}

// DeleteWell removes a well together with its raw measurements, daily
// averages and report entries.
func (s *Store) DeleteWell(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM raw_measurements WHERE well_id = ?",
		"DELETE FROM daily_averages WHERE well_id = ?",
		"DELETE FROM report_entries WHERE well_id = ?",
		"DELETE FROM wells WHERE id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete well %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListSystems() ([]models.System, error) {
	rows, err := s.db.Query(`SELECT id, name FROM systems ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var systems []models.System
	for rows.Next() {
		var sys models.System
		if err := rows.Scan(&sys.ID, &sys.Name); err != nil {
			return nil, err
		}
		systems = append(systems, sys)
	}
	return systems, rows.Err()
}

func (s *Store) SaveSystem(sys models.System) error {
	_, err := s.db.Exec(`
		INSERT INTO systems (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, sys.ID, sys.Name)
	return err
}

// DeleteSystem refuses to remove a system any well still references.
func (s *Store) DeleteSystem(id string) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM wells WHERE system_id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("system %s is referenced by %d wells", id, count)
	}
	_, err := s.db.Exec(`DELETE FROM systems WHERE id = ?`, id)
	return err
}

func (s *Store) ListRules() ([]models.ImportRule, error) {
	rows, err := s.db.Query(`SELECT id, source_pattern, action, target_ids, split_percentage FROM import_rules ORDER BY source_pattern`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.ImportRule
	for rows.Next() {
		var r models.ImportRule
		var targets string
		var pct sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.SourcePattern, &r.Action, &targets, &pct); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(targets), &r.TargetWellIDs); err != nil {
			return nil, fmt.Errorf("rule %s targets: %w", r.ID, err)
		}
		if pct.Valid {
			r.SplitPercentage = pct.Float64
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// SaveRule upserts a rule. At most one rule per source pattern is consulted
// during resolution, so a second rule for the same pattern is rejected here
// rather than silently shadowed.
func (s *Store) SaveRule(r models.ImportRule) error {
	if len(r.TargetWellIDs) == 0 {
		return fmt.Errorf("rule %s has no target wells", r.ID)
	}
	if r.Action == models.ActionSplit && r.SplitPercentage <= 0 {
		return fmt.Errorf("rule %s: split action requires a positive percentage", r.ID)
	}

	var count int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM import_rules WHERE source_pattern = ? AND id <> ?`,
		r.SourcePattern, r.ID,
	).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("a rule for pattern %s already exists", r.SourcePattern)
	}

	targets, err := json.Marshal(r.TargetWellIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO import_rules (id, source_pattern, action, target_ids, split_percentage)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_pattern = excluded.source_pattern,
			action = excluded.action,
			target_ids = excluded.target_ids,
			split_percentage = excluded.split_percentage
	`, r.ID, r.SourcePattern, r.Action, string(targets), r.SplitPercentage)
	return err
}

func (s *Store) DeleteRule(id string) error {
	_, err := s.db.Exec(`DELETE FROM import_rules WHERE id = ?`, id)
	return err
}
