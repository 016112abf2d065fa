package report

import (
	"testing"

	"github.com/geocampo/wellflow/internal/models"
)

type fakeStorage struct {
	wells    []models.Well
	systems  []models.System
	averages []models.DailyAverage
	saved    []models.ReportEntry
}

func (f *fakeStorage) ListWells() ([]models.Well, error)     { return f.wells, nil }
func (f *fakeStorage) ListSystems() ([]models.System, error) { return f.systems, nil }

func (f *fakeStorage) DailyAverages(wellID string) ([]models.DailyAverage, error) {
	if wellID == "" {
		return f.averages, nil
	}
	var out []models.DailyAverage
	for _, a := range f.averages {
		if a.WellID == wellID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStorage) ReportEntries(date string) ([]models.ReportEntry, error) {
	var out []models.ReportEntry
	for _, e := range f.saved {
		if e.ReportDate == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStorage) ReportEntriesInRange(start, end string) ([]models.ReportEntry, error) {
	var out []models.ReportEntry
	for _, e := range f.saved {
		if e.ReportDate >= start && e.ReportDate <= end {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStorage) SaveReportEntries(entries []models.ReportEntry) error {
	f.saved = append(f.saved, entries...)
	return nil
}

func testWells() []models.Well {
	return []models.Well{
		{ID: "1", Name: "TR-101", Type: models.WellProduction, SystemID: "sys1", Status: models.WellOpen},
		{ID: "2", Name: "TR-102", Type: models.WellProduction, SystemID: "sys1", Status: models.WellClosed},
		{ID: "3", Name: "TR-201", Type: models.WellReinjection, SystemID: "sys1", Status: models.WellOpen},
	}
}

func TestDailyDraftFromAverages(t *testing.T) {
	store := &fakeStorage{
		wells: testWells(),
		averages: []models.DailyAverage{
			{WellID: "1", Date: "2024-03-05", AvgValue: 10.123, MetricType: models.MetricHeadPressure, Unit: models.UnitBar},
			{WellID: "1", Date: "2024-03-05", AvgValue: 8.0, MetricType: models.MetricSepPressure, Unit: models.UnitBar},
			{WellID: "1", Date: "2024-03-05", AvgValue: 5.5, MetricType: models.MetricSteamFlow, Unit: models.UnitKgPerSec},
			{WellID: "1", Date: "2024-03-05", AvgValue: 4.5, MetricType: models.MetricWaterFlow, Unit: models.UnitKgPerSec},
			{WellID: "1", Date: "2024-03-04", AvgValue: 99.0, MetricType: models.MetricWaterFlow, Unit: models.UnitKgPerSec},
		},
	}
	synth := NewSynthesizer(store)

	entries, persisted, err := synth.Daily("2024-03-05")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if persisted {
		t.Fatal("draft reported as persisted")
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want one per well", len(entries))
	}

	tr101 := entries[0]
	if tr101.WellName != "TR-101" {
		t.Fatalf("first entry = %s, want TR-101", tr101.WellName)
	}
	if tr101.HeadPressure != 10.12 {
		t.Errorf("head pressure = %v, want 10.12 rounded", tr101.HeadPressure)
	}
	if tr101.SepPressure != 8.0 || tr101.SteamFlow != 5.5 || tr101.WaterFlow != 4.5 {
		t.Errorf("entry = %+v", tr101)
	}
	if tr101.WaterFlow == 99.0 {
		t.Error("picked up an average from another date")
	}
	if tr101.Enthalpy != 0 || tr101.Quality != 0 {
		t.Errorf("draft enthalpy/quality = %v/%v, want zeros before Calculate", tr101.Enthalpy, tr101.Quality)
	}
	if tr101.OperationHours != 24 {
		t.Errorf("open well hours = %v, want 24", tr101.OperationHours)
	}

	tr102 := entries[1]
	if tr102.OperationHours != 0 {
		t.Errorf("closed well hours = %v, want 0", tr102.OperationHours)
	}
	if tr102.HeadPressure != 0 || tr102.WaterFlow != 0 {
		t.Errorf("well without averages = %+v, want zero metrics", tr102)
	}
}

func TestDailyReturnsSavedEntriesHydrated(t *testing.T) {
	store := &fakeStorage{
		wells: testWells(),
		saved: []models.ReportEntry{
			{ReportDate: "2024-03-05", WellID: "1", SteamFlow: 7.0, Enthalpy: 1800},
		},
	}
	synth := NewSynthesizer(store)

	entries, persisted, err := synth.Daily("2024-03-05")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if !persisted {
		t.Fatal("saved entries not reported as persisted")
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want the 1 saved row", len(entries))
	}
	if entries[0].WellName != "TR-101" || entries[0].WellType != models.WellProduction {
		t.Errorf("hydration missing: %+v", entries[0])
	}
	if entries[0].SteamFlow != 7.0 || entries[0].Enthalpy != 1800 {
		t.Errorf("saved values changed: %+v", entries[0])
	}
}

func TestRangeAveragesSavedDays(t *testing.T) {
	store := &fakeStorage{
		wells: testWells(),
		saved: []models.ReportEntry{
			{ReportDate: "2024-03-05", WellID: "1", SteamFlow: 4.0, OperationHours: 24},
			{ReportDate: "2024-03-06", WellID: "1", SteamFlow: 6.0, OperationHours: 12},
			{ReportDate: "2024-03-07", WellID: "1", SteamFlow: 100.0}, // outside range
		},
	}
	synth := NewSynthesizer(store)

	entries, err := synth.Range("2024-03-05", "2024-03-06")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want one per well", len(entries))
	}

	tr101 := entries[0]
	if tr101.ReportDate != "2024-03-05 al 2024-03-06" {
		t.Errorf("range label = %q", tr101.ReportDate)
	}
	if tr101.SteamFlow != 5.0 {
		t.Errorf("steam flow mean = %v, want 5.0", tr101.SteamFlow)
	}
	if tr101.OperationHours != 18 {
		t.Errorf("hours mean = %v, want 18", tr101.OperationHours)
	}

	// Wells with no saved rows in the window report zeros, not NaN.
	tr102 := entries[1]
	if tr102.SteamFlow != 0 || tr102.OperationHours != 0 {
		t.Errorf("well without rows = %+v, want zeros", tr102)
	}
}

func TestRangeOfSingleDayEqualsDailyEntry(t *testing.T) {
	store := &fakeStorage{
		wells: testWells(),
		saved: []models.ReportEntry{{
			ReportDate: "2024-03-05", WellID: "1",
			HeadPressure: 12.5, SteamFlow: 4.0, WaterFlow: 3.0, OperationHours: 24,
		}},
	}
	synth := NewSynthesizer(store)

	entries, err := synth.Range("2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	got := entries[0]
	want := store.saved[0]
	if got.HeadPressure != want.HeadPressure || got.SteamFlow != want.SteamFlow ||
		got.WaterFlow != want.WaterFlow || got.OperationHours != want.OperationHours {
		t.Errorf("one-day range = %+v, want the single daily entry %+v", got, want)
	}
}

func TestSaveStampsDate(t *testing.T) {
	store := &fakeStorage{}
	synth := NewSynthesizer(store)

	entries := []models.ReportEntry{
		{WellID: "1", ReportDate: "wrong"},
		{WellID: "2"},
	}
	if err := synth.Save("2024-03-05", entries); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, e := range store.saved {
		if e.ReportDate != "2024-03-05" {
			t.Errorf("saved entry date = %q, want stamped date", e.ReportDate)
		}
	}
}

func TestCalculateProductionOnly(t *testing.T) {
	entries := []models.ReportEntry{
		{WellID: "1", WellType: models.WellProduction, SepPressure: 10, SteamFlow: 5, WaterFlow: 5},
		{WellID: "3", WellType: models.WellReinjection, SepPressure: 10, SteamFlow: 5, WaterFlow: 5, Enthalpy: 1},
		{WellID: "4", WellType: models.WellProduction, Enthalpy: 123, Quality: 45},
	}
	Calculate(entries)

	if entries[0].Enthalpy != 1770.45 || entries[0].Quality != 50.0 {
		t.Errorf("production row = %v/%v, want 1770.45/50.0", entries[0].Enthalpy, entries[0].Quality)
	}
	if entries[1].Enthalpy != 1 {
		t.Errorf("reinjection row modified: %+v", entries[1])
	}
	if entries[2].Enthalpy != 123 || entries[2].Quality != 45 {
		t.Errorf("row without pressure or flow modified: %+v", entries[2])
	}
}

func TestBalance(t *testing.T) {
	systems := []models.System{
		{ID: "sys1", Name: "Sistema Norte"},
		{ID: "sys2", Name: "Sistema Sur"},
	}
	entries := []models.ReportEntry{
		{WellID: "1", WellType: models.WellProduction, SystemID: "sys1", WaterFlow: 10},
		{WellID: "2", WellType: models.WellProduction, SystemID: "sys1", WaterFlow: 6},
		{WellID: "3", WellType: models.WellReinjection, SystemID: "sys1", WaterFlow: 12},
	}

	balances := Balance(entries, systems)
	if len(balances) != 1 {
		t.Fatalf("got %d balances, want only systems with movement", len(balances))
	}
	b := balances[0]
	if b.SystemName != "Sistema Norte" || b.WaterIn != 16 || b.WaterOut != 12 || b.Balance != 4 {
		t.Errorf("balance = %+v", b)
	}
}

func TestTotalFlows(t *testing.T) {
	entries := []models.ReportEntry{
		{WellType: models.WellProduction, SteamFlow: 5, WaterFlow: 3},
		{WellType: models.WellProduction, SteamFlow: 2, WaterFlow: 1},
		{WellType: models.WellReinjection, SteamFlow: 9, WaterFlow: 9},
	}
	steamTotal, waterTotal := TotalFlows(entries)
	if steamTotal != 7 || waterTotal != 4 {
		t.Errorf("totals = %v/%v, want 7/4", steamTotal, waterTotal)
	}
}
