package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/geocampo/wellflow/internal/metrics"
	"github.com/geocampo/wellflow/internal/models"
)

// Storage is the slice of the storage collaborator the importer needs.
type Storage interface {
	ListWells() ([]models.Well, error)
	ListRules() ([]models.ImportRule, error)
	SubmitImportBatch(raw []models.RawMeasurement, averages []models.DailyAverage) error
}

// File is one vendor export queued for import. The well token is taken from
// Name, so callers should pass the base file name.
type File struct {
	Name string
	Data []byte
}

// Importer routes vendor file rows to wells and folds them into daily
// averages. Files are processed strictly one at a time, in order; each
// file's raw measurements and computed averages go to storage as one batch
// before the next file starts.
type Importer struct {
	store       Storage
	channels    []models.Channel
	diagnostics []string
	now         func() time.Time
}

func NewImporter(store Storage, channels []models.Channel) *Importer {
	return &Importer{store: store, channels: channels, now: time.Now}
}

// Diagnostics returns the ordered per-run message log for the operator.
func (im *Importer) Diagnostics() []string {
	return im.diagnostics
}

func (im *Importer) logf(format string, args ...any) {
	im.diagnostics = append(im.diagnostics, fmt.Sprintf(format, args...))
}

// Run imports the given files. Structural problems (missing token,
// unmatched well, no valid rows) reject the single file with a diagnostic
// and processing continues; storage failures abort the run.
func (im *Importer) Run(files []File) error {
	wells, err := im.store.ListWells()
	if err != nil {
		return fmt.Errorf("list wells: %w", err)
	}
	rules, err := im.store.ListRules()
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	resolver := NewResolver(wells, rules)

	for _, f := range files {
		if err := im.processFile(resolver, f); err != nil {
			return err
		}
	}
	return nil
}

type averageKey struct {
	WellID     string
	Date       string
	MetricType string
}

type accumulator struct {
	sum   float64
	count int
	unit  string
}

func (im *Importer) processFile(resolver *Resolver, f File) error {
	token, ok := WellToken(f.Name)
	if !ok {
		im.logf("%s: file name has no TR-<digits> token, skipped", f.Name)
		metrics.FilesRejected.WithLabelValues("no_token").Inc()
		return nil
	}

	res, ok := resolver.Resolve(token)
	if !ok {
		im.logf("%s: no rule or well matches %s, skipped", f.Name, token)
		metrics.FilesRejected.WithLabelValues("unmatched_well").Inc()
		return nil
	}

	lines := strings.Split(string(f.Data), "\n")
	importedAt := im.now().UTC()

	var raw []models.RawMeasurement
	acc := make(map[averageKey]*accumulator)
	rowsParsed := 0

	for i := dataLineIndex; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		cols := splitColumns(line)
		if len(cols) < 2 {
			continue
		}
		date, clock, ok := ParseDateTime(cols[0], cols[1])
		if !ok {
			continue
		}
		rowsParsed++

		for _, ch := range im.channels {
			if !ch.Enabled || ch.Index >= len(cols) {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(cols[ch.Index]), 64)
			if err != nil {
				continue
			}

			stored := value
			if res.Action == models.ActionSplit && res.SplitPercentage > 0 {
				stored = value * (res.SplitPercentage / 100) / float64(max(1, len(res.TargetWellIDs)))
			}

			for _, wellID := range res.TargetWellIDs {
				raw = append(raw, models.RawMeasurement{
					ID:          uuid.NewString(),
					WellID:      wellID,
					Date:        date,
					Time:        clock,
					Value:       stored,
					ChannelName: ch.Name,
					FileName:    f.Name,
					ImportedAt:  importedAt,
				})

				// Non-positive samples are kept as raw measurements but
				// excluded from the daily average.
				if stored > 0 {
					k := averageKey{WellID: wellID, Date: date, MetricType: ch.MetricType}
					a := acc[k]
					if a == nil {
						a = &accumulator{unit: ch.Unit}
						acc[k] = a
					}
					a.sum += stored
					a.count++
				}
			}
		}
	}

	if len(raw) == 0 {
		im.logf("%s: no valid data rows", f.Name)
		metrics.FilesRejected.WithLabelValues("empty").Inc()
		return nil
	}

	averages := make([]models.DailyAverage, 0, len(acc))
	for k, a := range acc {
		averages = append(averages, models.DailyAverage{
			WellID:      k.WellID,
			Date:        k.Date,
			AvgValue:    a.sum / float64(a.count),
			SampleCount: a.count,
			MetricType:  k.MetricType,
			Unit:        a.unit,
		})
	}
	sort.Slice(averages, func(i, j int) bool {
		a, b := averages[i], averages[j]
		if a.WellID != b.WellID {
			return a.WellID < b.WellID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.MetricType < b.MetricType
	})

	if err := im.store.SubmitImportBatch(raw, averages); err != nil {
		return fmt.Errorf("submit batch for %s: %w", f.Name, err)
	}

	im.logf("%s: %d rows -> %d measurements, %d daily averages", f.Name, rowsParsed, len(raw), len(averages))
	metrics.FilesImported.Inc()
	metrics.RowsParsed.Add(float64(rowsParsed))
	metrics.MeasurementsWritten.Add(float64(len(raw)))
	metrics.AveragesComputed.Add(float64(len(averages)))
	return nil
}
