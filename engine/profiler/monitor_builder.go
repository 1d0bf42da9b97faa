package profiler

import (
	"log/slog"
	"time"
)

// MonitorBuilderOption is a functional option for configuring a Monitor.
type MonitorBuilderOption func(*Monitor)

// WithCapacity sets the ring buffer size.
//
// Parameters:
//   - n: number of samples kept; values < 1 are ignored
//
// Returns:
//   - MonitorBuilderOption: option function to apply
func WithCapacity(n int) MonitorBuilderOption {
	return func(m *Monitor) {
		if n >= 1 {
			m.samples = make([]float64, n)
		}
	}
}

// WithWindow sets how many consecutive slow samples switch on low-performance mode,
// and how many fresh samples a recovery decision needs. Clamped to the capacity.
func WithWindow(n int) MonitorBuilderOption {
	return func(m *Monitor) {
		m.window = n
	}
}

// WithThresholds sets the low and recovery frame rates.
//
// Parameters:
//   - low: frame rate below which a sample counts as slow
//   - recoverFPS: minimum window frame rate for Healthy
//
// Returns:
//   - MonitorBuilderOption: option function to apply
func WithThresholds(low, recoverFPS float64) MonitorBuilderOption {
	return func(m *Monitor) {
		m.lowFPS = low
		m.recoverFPS = max(recoverFPS, low)
	}
}

// WithOnChange sets the edge callback.
func WithOnChange(cb func(low bool)) MonitorBuilderOption {
	return func(m *Monitor) {
		m.onChange = cb
	}
}

// WithLogger sets the logger for edge and periodic stats records.
func WithLogger(logger *slog.Logger) MonitorBuilderOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStatsInterval enables a periodic frame stats record. Zero disables it.
func WithStatsInterval(d time.Duration) MonitorBuilderOption {
	return func(m *Monitor) {
		m.statsInterval = d
	}
}
