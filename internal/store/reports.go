package store

import (
	"database/sql"
	"fmt"

	"github.com/geocampo/wellflow/internal/models"
)

const reportColumns = `report_date, well_id, system_id, status, head_pressure, sep_pressure,
	steam_flow, water_flow, enthalpy, quality, operation_hours, stem_distance, temperature`

func scanReportEntries(rows *sql.Rows) ([]models.ReportEntry, error) {
	var entries []models.ReportEntry
	for rows.Next() {
		var e models.ReportEntry
		if err := rows.Scan(
			&e.ReportDate, &e.WellID, &e.SystemID, &e.Status,
			&e.HeadPressure, &e.SepPressure, &e.SteamFlow, &e.WaterFlow,
			&e.Enthalpy, &e.Quality, &e.OperationHours, &e.StemDistance, &e.Temperature,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ReportEntries(date string) ([]models.ReportEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+reportColumns+` FROM report_entries WHERE report_date = ? ORDER BY well_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReportEntries(rows)
}

func (s *Store) ReportEntriesInRange(start, end string) ([]models.ReportEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+reportColumns+` FROM report_entries WHERE report_date >= ? AND report_date <= ? ORDER BY report_date, well_id`,
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReportEntries(rows)
}

// SaveReportEntries replaces entries by their (report date, well) key.
func (s *Store) SaveReportEntries(entries []models.ReportEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO report_entries (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_date, well_id) DO UPDATE SET
			system_id = excluded.system_id,
			status = excluded.status,
			head_pressure = excluded.head_pressure,
			sep_pressure = excluded.sep_pressure,
			steam_flow = excluded.steam_flow,
			water_flow = excluded.water_flow,
			enthalpy = excluded.enthalpy,
			quality = excluded.quality,
			operation_hours = excluded.operation_hours,
			stem_distance = excluded.stem_distance,
			temperature = excluded.temperature
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(
			e.ReportDate, e.WellID, e.SystemID, e.Status,
			e.HeadPressure, e.SepPressure, e.SteamFlow, e.WaterFlow,
			e.Enthalpy, e.Quality, e.OperationHours, e.StemDistance, e.Temperature,
		); err != nil {
			return fmt.Errorf("save report entry %s/%s: %w", e.ReportDate, e.WellID, err)
		}
	}

	return tx.Commit()
}
