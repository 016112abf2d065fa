// Package report builds editable daily operational reports from stored
// averages and read-only range aggregates from previously saved reports.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/geocampo/wellflow/internal/models"
	"github.com/geocampo/wellflow/internal/steam"
)

// Storage is the slice of the storage collaborator the synthesizer needs.
type Storage interface {
	ListWells() ([]models.Well, error)
	ListSystems() ([]models.System, error)
	DailyAverages(wellID string) ([]models.DailyAverage, error)
	ReportEntries(date string) ([]models.ReportEntry, error)
	ReportEntriesInRange(start, end string) ([]models.ReportEntry, error)
	SaveReportEntries(entries []models.ReportEntry) error
}

type Synthesizer struct {
	store Storage
}

func NewSynthesizer(store Storage) *Synthesizer {
	return &Synthesizer{store: store}
}

// Draft field matching: each report column pulls the first stored average
// whose metric type contains the label, case-insensitively. "Agua" matches
// "Flujo de Agua", "Separación" matches "Presión de Separación", and so on.
var draftLabels = struct {
	head, sep, steamFlow, waterFlow, stem, temp string
}{"Cabezal", "Separación", "Vapor", "Agua", "Vástago", "Temperatura"}

// Daily returns the report rows for one date. If entries were previously
// saved, they are hydrated with current well display data and persisted is
// true. Otherwise a draft is built from that day's averages: missing metrics
// default to 0, enthalpy and quality start at 0, and operation hours are 24
// for open wells and 0 for closed ones.
func (s *Synthesizer) Daily(date string) (entries []models.ReportEntry, persisted bool, err error) {
	wells, err := s.store.ListWells()
	if err != nil {
		return nil, false, fmt.Errorf("list wells: %w", err)
	}

	saved, err := s.store.ReportEntries(date)
	if err != nil {
		return nil, false, fmt.Errorf("report entries for %s: %w", date, err)
	}
	if len(saved) > 0 {
		byID := make(map[string]models.Well, len(wells))
		for _, w := range wells {
			byID[w.ID] = w
		}
		for i := range saved {
			w := byID[saved[i].WellID]
			saved[i].WellName = w.Name
			saved[i].WellType = w.Type
		}
		return saved, true, nil
	}

	averages, err := s.store.DailyAverages("")
	if err != nil {
		return nil, false, fmt.Errorf("daily averages: %w", err)
	}
	perWell := make(map[string][]models.DailyAverage)
	for _, a := range averages {
		if a.Date == date {
			perWell[a.WellID] = append(perWell[a.WellID], a)
		}
	}

	entries = make([]models.ReportEntry, 0, len(wells))
	for _, w := range wells {
		wellAvgs := perWell[w.ID]
		get := func(label string) float64 {
			needle := strings.ToLower(label)
			for _, a := range wellAvgs {
				if strings.Contains(strings.ToLower(a.MetricType), needle) {
					return round2(a.AvgValue)
				}
			}
			return 0
		}

		hours := 0.0
		if w.Status == models.WellOpen {
			hours = 24
		}

		entries = append(entries, models.ReportEntry{
			ReportDate:     date,
			WellID:         w.ID,
			WellName:       w.Name,
			WellType:       w.Type,
			SystemID:       w.SystemID,
			Status:         w.Status,
			HeadPressure:   get(draftLabels.head),
			SepPressure:    get(draftLabels.sep),
			SteamFlow:      get(draftLabels.steamFlow),
			WaterFlow:      get(draftLabels.waterFlow),
			OperationHours: hours,
			StemDistance:   get(draftLabels.stem),
			Temperature:    get(draftLabels.temp),
		})
	}
	return entries, false, nil
}

// Range returns per-well arithmetic means over the saved daily entries in
// [start, end]. Wells with no saved rows in the window report zeros. Status
// and system are snapshots of the current well configuration. Range results
// are read-only; there is no save path back into daily storage.
func (s *Synthesizer) Range(start, end string) ([]models.ReportEntry, error) {
	wells, err := s.store.ListWells()
	if err != nil {
		return nil, fmt.Errorf("list wells: %w", err)
	}
	rows, err := s.store.ReportEntriesInRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("report entries %s..%s: %w", start, end, err)
	}

	byWell := make(map[string][]models.ReportEntry)
	for _, r := range rows {
		byWell[r.WellID] = append(byWell[r.WellID], r)
	}

	entries := make([]models.ReportEntry, 0, len(wells))
	for _, w := range wells {
		wellRows := byWell[w.ID]
		mean := func(get func(models.ReportEntry) float64) float64 {
			if len(wellRows) == 0 {
				return 0
			}
			var sum float64
			for _, r := range wellRows {
				sum += get(r)
			}
			return sum / float64(len(wellRows))
		}

		entries = append(entries, models.ReportEntry{
			ReportDate:     start + " al " + end,
			WellID:         w.ID,
			WellName:       w.Name,
			WellType:       w.Type,
			SystemID:       w.SystemID,
			Status:         w.Status,
			HeadPressure:   mean(func(r models.ReportEntry) float64 { return r.HeadPressure }),
			SepPressure:    mean(func(r models.ReportEntry) float64 { return r.SepPressure }),
			SteamFlow:      mean(func(r models.ReportEntry) float64 { return r.SteamFlow }),
			WaterFlow:      mean(func(r models.ReportEntry) float64 { return r.WaterFlow }),
			Enthalpy:       mean(func(r models.ReportEntry) float64 { return r.Enthalpy }),
			Quality:        mean(func(r models.ReportEntry) float64 { return r.Quality }),
			OperationHours: mean(func(r models.ReportEntry) float64 { return r.OperationHours }),
			StemDistance:   mean(func(r models.ReportEntry) float64 { return r.StemDistance }),
			Temperature:    mean(func(r models.ReportEntry) float64 { return r.Temperature }),
		})
	}
	return entries, nil
}

// Save persists the full daily row set for one date, stamping every entry
// with that date and replacing prior rows for matching (date, well) keys.
func (s *Synthesizer) Save(date string, entries []models.ReportEntry) error {
	for i := range entries {
		entries[i].ReportDate = date
	}
	return s.store.SaveReportEntries(entries)
}

// Calculate runs the thermodynamic derivation over the rows in place.
// Only production wells are touched, and rows with no usable pressure or
// flow keep their existing enthalpy/quality.
func Calculate(entries []models.ReportEntry) {
	for i := range entries {
		e := &entries[i]
		if e.WellType != models.WellProduction {
			continue
		}
		enthalpy, quality, ok := steam.Derive(e.HeadPressure, e.SepPressure, e.SteamFlow, e.WaterFlow)
		if !ok {
			continue
		}
		e.Enthalpy = enthalpy
		e.Quality = quality
	}
}

// SystemBalance compares production water in against reinjection water out
// for one system.
type SystemBalance struct {
	SystemID   string
	SystemName string
	WaterIn    float64
	WaterOut   float64
	Balance    float64
}

// Balance summarizes water flow per system across report rows. Systems with
// no water movement are omitted. A positive balance is water accumulated in
// ponds or lost to evaporation.
func Balance(entries []models.ReportEntry, systems []models.System) []SystemBalance {
	var balances []SystemBalance
	for _, sys := range systems {
		var in, out float64
		for _, e := range entries {
			if e.SystemID != sys.ID {
				continue
			}
			switch e.WellType {
			case models.WellProduction:
				in += e.WaterFlow
			case models.WellReinjection:
				out += e.WaterFlow
			}
		}
		if in == 0 && out == 0 {
			continue
		}
		balances = append(balances, SystemBalance{
			SystemID:   sys.ID,
			SystemName: sys.Name,
			WaterIn:    in,
			WaterOut:   out,
			Balance:    in - out,
		})
	}
	return balances
}

// TotalFlows sums steam and water flow over the production rows.
func TotalFlows(entries []models.ReportEntry) (steamTotal, waterTotal float64) {
	for _, e := range entries {
		if e.WellType != models.WellProduction {
			continue
		}
		steamTotal += e.SteamFlow
		waterTotal += e.WaterFlow
	}
	return steamTotal, waterTotal
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
