// Package profiler measures presentation frame rate and decides when rendering is too slow.
package profiler

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Metrics is a read-only snapshot of presentation performance.
type Metrics struct {
	// FPS is the smoothed frame rate over the sample buffer.
	FPS float64
	// FrameTime is the mean frame time over the sample buffer.
	FrameTime time.Duration
	// Jitter is the standard deviation of frame times over the sample buffer.
	Jitter time.Duration
	// DrawCalls and TriangleCount describe the last presented frame.
	DrawCalls     int
	TriangleCount int
	// MemoryEstimate is live heap plus the reported GPU buffer bytes.
	MemoryEstimate uint64
	// Low reports whether low-performance mode is active.
	Low bool
}

// Monitor keeps a ring buffer of frame times and flags sustained low frame rates.
//
// IsLow flips to true only after Window consecutive samples below the low threshold.
// It never flips back by itself: the owner calls MarkNormal once Healthy reports a
// fresh full window at or above the recovery threshold.
type Monitor struct {
	mu     *sync.Mutex
	logger *slog.Logger

	samples []float64 // milliseconds
	head    int
	count   int

	window     int
	lowFPS     float64
	recoverFPS float64

	belowStreak int
	sinceReset  int
	low         bool
	onChange    func(low bool)

	drawCalls int
	triangles int
	gpuBytes  uint64

	statsInterval time.Duration
	profiler      *Profiler
}

// NewMonitor creates a Monitor with a 60-sample buffer, a 30-sample window,
// a 45 FPS low threshold and a 55 FPS recovery threshold unless overridden.
//
// Parameters:
//   - options: functional options to configure the monitor
//
// Returns:
//   - *Monitor: the new monitor
func NewMonitor(options ...MonitorBuilderOption) *Monitor {
	m := &Monitor{
		mu:         &sync.Mutex{},
		logger:     slog.Default(),
		samples:    make([]float64, 60),
		window:     30,
		lowFPS:     45,
		recoverFPS: 55,
	}
	for _, opt := range options {
		opt(m)
	}
	m.window = min(max(m.window, 1), len(m.samples))
	m.logger = m.logger.With("component", "profiler")
	if m.statsInterval > 0 {
		m.profiler = NewProfiler(m.logger, m.statsInterval)
	}
	return m
}

// Sample records one frame time.
//
// Parameters:
//   - frameTime: the duration of the last frame; non-positive values are ignored
//
// Returns:
//   - bool: true if this sample switched the monitor into low-performance mode
func (m *Monitor) Sample(frameTime time.Duration) bool {
	if frameTime <= 0 {
		return false
	}
	ms := float64(frameTime) / float64(time.Millisecond)

	m.mu.Lock()
	m.samples[m.head] = ms
	m.head = (m.head + 1) % len(m.samples)
	m.count = min(m.count+1, len(m.samples))
	m.sinceReset++

	if 1000/ms < m.lowFPS {
		m.belowStreak++
	} else {
		m.belowStreak = 0
	}

	changed := false
	if !m.low && m.belowStreak >= m.window {
		m.low = true
		m.sinceReset = 0
		changed = true
	}
	cb := m.onChange
	fps := m.fpsLocked()
	if m.profiler != nil {
		m.profiler.Tick(time.Now())
	}
	m.mu.Unlock()

	if changed {
		m.logger.Warn("low performance", "fps", fps, "window", m.window)
		if cb != nil {
			cb(true)
		}
	}
	return changed
}

// IsLow reports whether low-performance mode is active.
func (m *Monitor) IsLow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.low
}

// Filled reports whether a full window of samples has been recorded since the last
// low edge, ResetWindow or MarkNormal.
func (m *Monitor) Filled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sinceReset >= m.window
}

// Healthy reports whether the most recent full window averages at or above the
// recovery threshold. It is false until Filled.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sinceReset < m.window {
		return false
	}
	return m.windowFPSLocked() >= m.recoverFPS
}

// MarkNormal leaves low-performance mode and starts a fresh window.
//
// Returns:
//   - bool: true if the monitor was in low-performance mode
func (m *Monitor) MarkNormal() bool {
	m.mu.Lock()
	was := m.low
	m.low = false
	m.belowStreak = 0
	m.sinceReset = 0
	cb := m.onChange
	m.mu.Unlock()

	if was {
		m.logger.Info("performance recovered")
		if cb != nil {
			cb(false)
		}
	}
	return was
}

// ResetWindow discards every buffered sample without changing IsLow.
func (m *Monitor) ResetWindow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head, m.count = 0, 0
	m.belowStreak = 0
	m.sinceReset = 0
}

// OnChange sets the callback fired on low and normal edges. Only edges fire it.
func (m *Monitor) OnChange(cb func(low bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = cb
}

// FPS returns 1000 divided by the mean buffered frame time in milliseconds, or 0 when empty.
func (m *Monitor) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fpsLocked()
}

// RecordFrameCost stores the draw calls and triangles of the last presented frame.
func (m *Monitor) RecordFrameCost(drawCalls, triangles int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawCalls, m.triangles = drawCalls, triangles
}

// SetGPUMemory stores the estimated bytes held in GPU buffers.
func (m *Monitor) SetGPUMemory(bytes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gpuBytes = bytes
}

// Metrics returns a snapshot of the current measurements.
//
// Returns:
//   - Metrics: smoothed FPS, frame time statistics, frame cost and memory estimate
func (m *Monitor) Metrics() Metrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.Lock()
	defer m.mu.Unlock()
	out := Metrics{
		DrawCalls:      m.drawCalls,
		TriangleCount:  m.triangles,
		MemoryEstimate: ms.HeapAlloc + m.gpuBytes,
		Low:            m.low,
	}
	if m.count == 0 {
		return out
	}
	buf := m.buffered(m.count)
	mean, std := stat.MeanStdDev(buf, nil)
	if m.count < 2 {
		std = 0
	}
	out.FPS = 1000 / mean
	out.FrameTime = time.Duration(mean * float64(time.Millisecond))
	out.Jitter = time.Duration(std * float64(time.Millisecond))
	return out
}

func (m *Monitor) fpsLocked() float64 {
	if m.count == 0 {
		return 0
	}
	return 1000 / stat.Mean(m.buffered(m.count), nil)
}

func (m *Monitor) windowFPSLocked() float64 {
	n := min(m.window, m.count)
	if n == 0 {
		return 0
	}
	return 1000 / stat.Mean(m.buffered(n), nil)
}

// buffered returns the n most recent samples. Caller must hold the mutex.
func (m *Monitor) buffered(n int) []float64 {
	out := make([]float64, n)
	for i := range n {
		idx := (m.head - n + i + len(m.samples)) % len(m.samples)
		out[i] = m.samples[idx]
	}
	return out
}
