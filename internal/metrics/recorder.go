package metrics

import "filedeck/internal/registry"

// Recorder feeds registry events into the Prometheus metrics.
// Init must have been called.
type Recorder struct{}

// RecordScan implements registry.Recorder
func (Recorder) RecordScan(s registry.ScanSummary) error {
	RecordScan(s)
	return nil
}

// RecordResult implements registry.Recorder
func (Recorder) RecordResult(res registry.Result) error {
	RecordResult(res)
	return nil
}
