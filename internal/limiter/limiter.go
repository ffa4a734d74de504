package limiter

import (
	"runtime"
	"time"
)

// CPULimiter paces a long batch so it uses roughly maxPercent of one CPU.
// It satisfies registry.Throttler.
type CPULimiter struct {
	maxPercent float64
	workTime   time.Duration
	lastSleep  time.Time
	sleep      func(time.Duration)
}

// NewCPULimiter creates a limiter. 0 or >= 100 disables throttling.
func NewCPULimiter(maxPercent float64) *CPULimiter {
	return &CPULimiter{
		maxPercent: maxPercent,
		workTime:   10 * time.Millisecond,
		lastSleep:  time.Now(),
		sleep:      time.Sleep,
	}
}

// Enabled reports whether Throttle ever sleeps.
func (l *CPULimiter) Enabled() bool {
	return l.maxPercent > 0 && l.maxPercent < 100
}

// Throttle sleeps off the share of each work slice above maxPercent.
// Called between entries, it sleeps at most once per work slice.
func (l *CPULimiter) Throttle() {
	if !l.Enabled() {
		return
	}

	if time.Since(l.lastSleep) > l.workTime {
		l.sleep(l.sleepTime())
		l.lastSleep = time.Now()
	}

	runtime.Gosched()
}

// sleepTime keeps work/(work+sleep) at maxPercent.
func (l *CPULimiter) sleepTime() time.Duration {
	return time.Duration(float64(l.workTime) * (100.0 - l.maxPercent) / l.maxPercent)
}

// SetMaxPercent updates the maximum CPU percentage
func (l *CPULimiter) SetMaxPercent(maxPercent float64) {
	l.maxPercent = maxPercent
}
