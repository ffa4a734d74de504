package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"filedeck/internal/registry"
)

// Scan and batch operation metrics
var (
	// ScansTotal counts scans by mode (flat or recursive)
	ScansTotal *prometheus.CounterVec

	// ScanEntries tracks how many entries each scan produced
	ScanEntries prometheus.Histogram

	// ScanDuration tracks scan wall time in seconds
	ScanDuration prometheus.Histogram

	// LastScanTimestamp is the Unix time of the most recent scan
	LastScanTimestamp prometheus.Gauge

	// OperationsTotal counts per-entry delete and rename attempts
	OperationsTotal *prometheus.CounterVec

	// BytesDeletedTotal sums the recorded size of deleted entries
	BytesDeletedTotal prometheus.Counter

	// ObjectsRemovedTotal counts filesystem objects destroyed by deletes
	ObjectsRemovedTotal prometheus.Counter

	// ErrorsTotal counts failures of any kind
	ErrorsTotal prometheus.Counter
)

func initOperationMetrics() {
	ScansTotal = NewCounterVec(
		"filedeck_scans_total",
		"Total number of directory scans.",
		[]string{"mode"},
	)

	ScanEntries = NewCountHistogram(
		"filedeck_scan_entries",
		"Number of entries produced by a scan.",
	)

	ScanDuration = NewDurationHistogram(
		"filedeck_scan_duration_seconds",
		"Time taken by a directory scan.",
	)

	LastScanTimestamp = NewGauge(
		"filedeck_last_scan_timestamp",
		"Unix timestamp of the last completed scan.",
	)

	OperationsTotal = NewCounterVec(
		"filedeck_operations_total",
		"Per-entry batch operations by kind and outcome.",
		[]string{"op", "outcome"},
	)

	BytesDeletedTotal = NewCounter(
		"filedeck_bytes_deleted_total",
		"Total recorded size of successfully deleted entries.",
	)

	ObjectsRemovedTotal = NewCounter(
		"filedeck_objects_removed_total",
		"Total filesystem objects removed by deletes.",
	)

	ErrorsTotal = NewCounter(
		"filedeck_errors_total",
		"Total number of errors encountered by filedeck.",
	)
}

func registerOperationMetrics() {
	prometheus.MustRegister(ScansTotal)
	prometheus.MustRegister(ScanEntries)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(LastScanTimestamp)
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(BytesDeletedTotal)
	prometheus.MustRegister(ObjectsRemovedTotal)
	prometheus.MustRegister(ErrorsTotal)
}

// ScanMode returns the label value for a scan
func ScanMode(recursive bool) string {
	if recursive {
		return "recursive"
	}
	return "flat"
}

// RecordScan updates scan metrics from a summary
func RecordScan(s registry.ScanSummary) {
	ScansTotal.WithLabelValues(ScanMode(s.Recursive)).Inc()
	ScanEntries.Observe(float64(s.Entries))
	ScanDuration.Observe(s.Duration.Seconds())
	if !s.At.IsZero() {
		LastScanTimestamp.Set(float64(s.At.Unix()))
	}
	if s.Err != nil {
		ErrorsTotal.Inc()
	}
}

// RecordResult updates operation metrics from one per-entry result
func RecordResult(res registry.Result) {
	OperationsTotal.WithLabelValues(string(res.Op), res.Outcome()).Inc()
	if !res.Succeeded() {
		ErrorsTotal.Inc()
		return
	}
	if res.Op == registry.OpDelete {
		BytesDeletedTotal.Add(float64(res.Size))
		ObjectsRemovedTotal.Add(float64(res.Removed))
	}
}
