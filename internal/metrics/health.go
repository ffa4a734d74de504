package metrics

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ComponentHealthy is 1 while a component's last check passed
	ComponentHealthy *prometheus.GaugeVec

	HealthCheckDuration *prometheus.HistogramVec

	// HealthCheckFailures counts consecutive failures per component
	HealthCheckFailures *prometheus.GaugeVec
)

var errCheckTimeout = errors.New("health check timed out")

// Check reports whether a component is usable. It should honour ctx.
type Check func(ctx context.Context) error

// ComponentStatus is the outcome of a component's most recent check.
type ComponentStatus struct {
	Healthy   bool      `json:"healthy"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

type component struct {
	check   Check
	timeout time.Duration
	status  ComponentStatus
}

// HealthChecker periodically runs the checks of registered components,
// such as the operation journal, and backs the /health endpoint.
type HealthChecker struct {
	interval time.Duration

	mu         sync.RWMutex
	components map[string]*component

	cancel context.CancelFunc
	done   chan struct{}
}

func initHealthMetrics() {
	ComponentHealthy = NewGaugeVec(
		"filedeck_component_healthy",
		"Component health status (1=healthy, 0=unhealthy).",
		[]string{"component"},
	)

	HealthCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_health_check_duration_seconds",
			Help:    "Time taken to execute health checks.",
			Buckets: DurationBuckets,
		},
		[]string{"component"},
	)

	HealthCheckFailures = NewGaugeVec(
		"filedeck_health_check_failures_consecutive",
		"Consecutive health check failures per component.",
		[]string{"component"},
	)
}

func registerHealthMetrics() {
	prometheus.MustRegister(ComponentHealthy, HealthCheckDuration, HealthCheckFailures)
}

// NewHealthChecker returns a checker that runs every interval once started.
func NewHealthChecker(interval time.Duration) *HealthChecker {
	return &HealthChecker{
		interval:   interval,
		components: make(map[string]*component),
	}
}

// Register adds or replaces a component check. A zero timeout leaves the
// check bounded only by the context passed to RunChecks.
func (hc *HealthChecker) Register(name string, check Check, timeout time.Duration) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.components[name] = &component{
		check:   check,
		timeout: timeout,
		status:  ComponentStatus{Healthy: true},
	}
	ComponentHealthy.WithLabelValues(name).Set(1)
	HealthCheckFailures.WithLabelValues(name).Set(0)
}

// Start runs the checks immediately and then every interval until ctx is
// cancelled or Stop is called. Starting twice is a no-op.
func (hc *HealthChecker) Start(ctx context.Context) {
	hc.mu.Lock()
	if hc.cancel != nil {
		hc.mu.Unlock()
		return
	}
	ctx, hc.cancel = context.WithCancel(ctx)
	hc.done = make(chan struct{})
	hc.mu.Unlock()

	go func() {
		defer close(hc.done)

		ticker := time.NewTicker(hc.interval)
		defer ticker.Stop()

		for {
			hc.RunChecks(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the periodic checks and waits for the running round to end.
func (hc *HealthChecker) Stop() {
	hc.mu.Lock()
	cancel, done := hc.cancel, hc.done
	hc.cancel, hc.done = nil, nil
	hc.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunChecks runs every registered check once. Checks run without the lock
// held so a slow component does not block Status.
func (hc *HealthChecker) RunChecks(ctx context.Context) {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.components))
	for name := range hc.components {
		names = append(names, name)
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		hc.mu.RLock()
		comp, ok := hc.components[name]
		hc.mu.RUnlock()
		if !ok {
			continue
		}

		start := time.Now()
		err := runCheck(ctx, comp.check, comp.timeout)
		HealthCheckDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		hc.mu.Lock()
		comp.status.LastCheck = time.Now()
		if err != nil {
			comp.status.Healthy = false
			comp.status.Failures++
			comp.status.LastError = err.Error()
			ErrorsTotal.Inc()
		} else {
			comp.status = ComponentStatus{Healthy: true, LastCheck: comp.status.LastCheck}
		}
		failures := comp.status.Failures
		hc.mu.Unlock()

		if err != nil {
			ComponentHealthy.WithLabelValues(name).Set(0)
		} else {
			ComponentHealthy.WithLabelValues(name).Set(1)
		}
		HealthCheckFailures.WithLabelValues(name).Set(float64(failures))
	}
}

// runCheck waits for check or the timeout, whichever comes first. A check
// that ignores ctx is abandoned, not killed.
func runCheck(ctx context.Context, check Check, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- check(ctx) }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errCheckTimeout
	}
	return err
}

// Status returns a snapshot of every component's last check.
func (hc *HealthChecker) Status() map[string]ComponentStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	out := make(map[string]ComponentStatus, len(hc.components))
	for name, comp := range hc.components {
		out[name] = comp.status
	}
	return out
}

// Healthy reports whether every component passed its last check.
func (hc *HealthChecker) Healthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	for _, comp := range hc.components {
		if !comp.status.Healthy {
			return false
		}
	}
	return true
}
