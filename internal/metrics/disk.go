package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gauges for the filesystem holding each scanned root, labelled by root.
var (
	FreeSpacePercent *prometheus.GaugeVec
	RootFreeBytes    *prometheus.GaugeVec
	RootTotalBytes   *prometheus.GaugeVec
)

func initDiskMetrics() {
	FreeSpacePercent = NewGaugeVec(
		"filedeck_free_space_percent",
		"Free space percentage for scanned roots.",
		[]string{"path"},
	)

	RootFreeBytes = NewGaugeVec(
		"filedeck_root_free_bytes",
		"Free space available on the filesystem containing this root.",
		[]string{"path"},
	)

	RootTotalBytes = NewGaugeVec(
		"filedeck_root_total_bytes",
		"Total capacity of the filesystem containing this root.",
		[]string{"path"},
	)
}

func registerDiskMetrics() {
	prometheus.MustRegister(FreeSpacePercent, RootFreeBytes, RootTotalBytes)
}

// UpdateDiskMetrics sets the filesystem gauges for path
func UpdateDiskMetrics(path string, freeBytes, totalBytes int64) {
	freePercent := 100.0
	if totalBytes > 0 {
		freePercent = float64(freeBytes) / float64(totalBytes) * 100.0
	}
	FreeSpacePercent.WithLabelValues(path).Set(freePercent)
	RootFreeBytes.WithLabelValues(path).Set(float64(freeBytes))
	RootTotalBytes.WithLabelValues(path).Set(float64(totalBytes))
}
