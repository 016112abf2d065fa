package models

import "time"

type WellType string

const (
	WellProduction  WellType = "production"
	WellReinjection WellType = "reinjection"
)

type WellStatus string

const (
	WellOpen   WellStatus = "open"
	WellClosed WellStatus = "closed"
)

type Well struct {
	ID        string
	Name      string // vendor token, e.g. "TR-101"
	Type      WellType
	SystemID  string
	Status    WellStatus
	CreatedAt time.Time
}

// System groups wells for balance reporting.
type System struct {
	ID   string
	Name string
}

type RuleAction string

const (
	ActionAssign RuleAction = "assign"
	ActionSplit  RuleAction = "split"
)

// ImportRule routes measurements from a source well name to one or more
// target wells. SplitPercentage is only meaningful when Action is ActionSplit.
type ImportRule struct {
	ID              string
	SourcePattern   string
	Action          RuleAction
	TargetWellIDs   []string
	SplitPercentage float64
}

// RawMeasurement is one sample as stored, after routing. Append-only; rows
// are only ever removed in bulk by originating file name.
type RawMeasurement struct {
	ID          string
	WellID      string
	Date        string // YYYY-MM-DD
	Time        string // HH:MM:SS
	Value       float64
	ChannelName string
	FileName    string
	ImportedAt  time.Time
}

// DailyAverage is the mean of all positive samples for one
// (well, date, metric type) combination within an import batch.
type DailyAverage struct {
	WellID      string
	Date        string // YYYY-MM-DD
	AvgValue    float64
	SampleCount int
	MetricType  string
	Unit        string
}

// ReportEntry is one well's row in an operational report. Daily entries are
// persisted under (ReportDate, WellID); range entries are computed in memory
// and never written back. WellName and WellType are hydrated from the well
// configuration, not stored.
type ReportEntry struct {
	ReportDate string
	WellID     string
	WellName   string
	WellType   WellType

	SystemID string
	Status   WellStatus

	HeadPressure   float64
	SepPressure    float64
	SteamFlow      float64
	WaterFlow      float64
	Enthalpy       float64
	Quality        float64
	OperationHours float64
	StemDistance   float64
	Temperature    float64
}

// Channel is one detected data column in a vendor file.
type Channel struct {
	Name       string
	Index      int // zero-based column index in the data rows
	Enabled    bool
	MetricType string
	Unit       string
}

type ImportedFile struct {
	FileName       string
	LastImportedAt time.Time
	RecordCount    int
}

// Metric type labels as they appear in vendor configuration and reports.
// Report synthesis matches these by case-insensitive substring, so the
// accent spelling matters.
const (
	MetricWaterFlow    = "Flujo de Agua"
	MetricSteamFlow    = "Flujo de Vapor"
	MetricHeadPressure = "Presión de Cabezal"
	MetricSepPressure  = "Presión de Separación"
	MetricTemperature  = "Temperatura"
	MetricStemDistance = "Vástago"
)

const (
	UnitKgPerSec   = "kg/s"
	UnitBar        = "Bar"
	UnitPSI        = "PSI"
	UnitCelsius    = "°C"
	UnitTonPerHour = "t/h"
)
