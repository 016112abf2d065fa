package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellflow_files_imported_total",
			Help: "Vendor files successfully imported",
		},
	)

	FilesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellflow_files_rejected_total",
			Help: "Vendor files rejected before row processing",
		},
		[]string{"reason"},
	)

	RowsParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellflow_rows_parsed_total",
			Help: "Data rows with a valid date/time",
		},
	)

	MeasurementsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellflow_measurements_written_total",
			Help: "Raw measurements submitted to storage",
		},
	)

	AveragesComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellflow_daily_averages_computed_total",
			Help: "Daily averages computed across import batches",
		},
	)
)
