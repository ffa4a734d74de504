package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	initOnce    sync.Once
	serverMutex sync.Mutex
	currentSrv  *http.Server

	globalHealthChecker *HealthChecker
	healthMutex         sync.RWMutex
)

// Init initializes all metrics and registers them with Prometheus.
// Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		initOperationMetrics()
		initDiskMetrics()
		initHealthMetrics()

		registerOperationMetrics()
		registerDiskMetrics()
		registerHealthMetrics()

		// Present in /metrics before the first scan
		LastScanTimestamp.Set(0)
	})
}

// StartServer starts the metrics HTTP server on addr.
// Exposes /metrics (Prometheus) and /health.
func StartServer(addr string, logger zerolog.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Warn().Str("addr", currentSrv.Addr).Msg("metrics server already running")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	currentSrv = srv

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
			ErrorsTotal.Inc()
		}
	}()
}

// Shutdown gracefully stops the metrics server and any health checker
func Shutdown(ctx context.Context, logger zerolog.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	healthMutex.Lock()
	if globalHealthChecker != nil {
		globalHealthChecker.Stop()
		globalHealthChecker = nil
	}
	healthMutex.Unlock()

	if currentSrv == nil {
		return
	}

	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
		ErrorsTotal.Inc()
	}
	currentSrv = nil
}

type healthBody struct {
	Status     string                     `json:"status"`
	Healthy    bool                       `json:"healthy"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body := healthBody{Status: "ok", Healthy: true}
	if hc := GetHealthChecker(); hc != nil {
		body.Components = hc.Status()
		if !hc.Healthy() {
			body.Status = "degraded"
			body.Healthy = false
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
	_ = json.NewEncoder(w).Encode(body)
}

// SetHealthChecker sets the global health checker instance
func SetHealthChecker(hc *HealthChecker) {
	healthMutex.Lock()
	defer healthMutex.Unlock()
	globalHealthChecker = hc
}

// GetHealthChecker returns the global health checker instance
func GetHealthChecker() *HealthChecker {
	healthMutex.RLock()
	defer healthMutex.RUnlock()
	return globalHealthChecker
}
