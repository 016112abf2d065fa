package store

import (
	"fmt"
	"time"

	"github.com/geocampo/wellflow/internal/models"
)

// SubmitImportBatch appends one file's raw measurements and upserts its
// daily averages in a single transaction. Averages are keyed by
// (well, date, metric type): a new computation for an existing key replaces
// the stored value, so re-importing an overlapping file recomputes that
// average solely from the newest batch. Raw rows are never reconciled.
func (s *Store) SubmitImportBatch(raw []models.RawMeasurement, averages []models.DailyAverage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertRaw, err := tx.Prepare(`
		INSERT INTO raw_measurements (id, well_id, measurement_date, measurement_time, value, channel_name, file_name, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer insertRaw.Close()

	for _, m := range raw {
		if _, err := insertRaw.Exec(
			m.ID, m.WellID, m.Date, m.Time, m.Value, m.ChannelName, m.FileName,
			m.ImportedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert measurement %s: %w", m.ID, err)
		}
	}

	upsertAvg, err := tx.Prepare(`
		INSERT INTO daily_averages (well_id, date, metric_type, avg_value, sample_count, unit)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(well_id, date, metric_type) DO UPDATE SET
			avg_value = excluded.avg_value,
			sample_count = excluded.sample_count,
			unit = excluded.unit
	`)
	if err != nil {
		return err
	}
	defer upsertAvg.Close()

	for _, a := range averages {
		if _, err := upsertAvg.Exec(a.WellID, a.Date, a.MetricType, a.AvgValue, a.SampleCount, a.Unit); err != nil {
			return fmt.Errorf("upsert average %s/%s/%s: %w", a.WellID, a.Date, a.MetricType, err)
		}
	}

	return tx.Commit()
}

// DailyAverages returns stored averages, newest date first. An empty wellID
// returns every well.
func (s *Store) DailyAverages(wellID string) ([]models.DailyAverage, error) {
	query := `SELECT well_id, date, metric_type, avg_value, sample_count, unit FROM daily_averages`
	args := []any{}
	if wellID != "" {
		query += ` WHERE well_id = ?`
		args = append(args, wellID)
	}
	query += ` ORDER BY date DESC, well_id, metric_type`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []models.DailyAverage
	for rows.Next() {
		var a models.DailyAverage
		if err := rows.Scan(&a.WellID, &a.Date, &a.MetricType, &a.AvgValue, &a.SampleCount, &a.Unit); err != nil {
			return nil, err
		}
		averages = append(averages, a)
	}
	return averages, rows.Err()
}

func (s *Store) ImportedFiles() ([]models.ImportedFile, error) {
	rows, err := s.db.Query(`
		SELECT file_name, MAX(imported_at), COUNT(*)
		FROM raw_measurements
		GROUP BY file_name
		ORDER BY MAX(imported_at) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.ImportedFile
	for rows.Next() {
		var f models.ImportedFile
		var importedAt string
		if err := rows.Scan(&f.FileName, &importedAt, &f.RecordCount); err != nil {
			return nil, err
		}
		f.LastImportedAt, _ = time.Parse(time.RFC3339, importedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteImportedFile removes a file's raw measurements and every daily
// average for the (well, date) pairs that file contributed to. Averages are
// deleted rather than recomputed; the next import of those dates rebuilds
// them.
func (s *Store) DeleteImportedFile(fileName string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT DISTINCT well_id, measurement_date
		FROM raw_measurements
		WHERE file_name = ?
	`, fileName)
	if err != nil {
		return err
	}

	type wellDate struct{ wellID, date string }
	var affected []wellDate
	for rows.Next() {
		var wd wellDate
		if err := rows.Scan(&wd.wellID, &wd.date); err != nil {
			rows.Close()
			return err
		}
		affected = append(affected, wd)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM raw_measurements WHERE file_name = ?`, fileName); err != nil {
		return fmt.Errorf("delete measurements for %s: %w", fileName, err)
	}
	for _, wd := range affected {
		if _, err := tx.Exec(`DELETE FROM daily_averages WHERE well_id = ? AND date = ?`, wd.wellID, wd.date); err != nil {
			return fmt.Errorf("delete averages for %s/%s: %w", wd.wellID, wd.date, err)
		}
	}

	return tx.Commit()
}
