package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	slow = 40 * time.Millisecond // 25 fps
	fast = 10 * time.Millisecond // 100 fps
)

func TestThirtySlowSamplesFlipOnce(t *testing.T) {
	var edges []bool
	m := NewMonitor(WithOnChange(func(low bool) { edges = append(edges, low) }))

	flips := 0
	for range 29 {
		if m.Sample(slow) {
			flips++
		}
	}
	assert.False(t, m.IsLow())

	for range 31 {
		if m.Sample(slow) {
			flips++
		}
	}
	assert.Equal(t, 1, flips)
	assert.True(t, m.IsLow())
	assert.Equal(t, []bool{true}, edges)
}

func TestSingleSlowSampleNeverFlips(t *testing.T) {
	m := NewMonitor()
	for i := range 30 {
		if i == 15 {
			assert.False(t, m.Sample(slow))
			continue
		}
		assert.False(t, m.Sample(fast))
	}
	assert.False(t, m.IsLow())
}

func TestRecoveryIsExplicit(t *testing.T) {
	var edges []bool
	m := NewMonitor(WithOnChange(func(low bool) { edges = append(edges, low) }))
	for range 30 {
		m.Sample(slow)
	}
	require.True(t, m.IsLow())

	for range 60 {
		m.Sample(fast)
	}
	assert.True(t, m.IsLow(), "monitor must not recover on its own")
	assert.True(t, m.Healthy())

	assert.True(t, m.MarkNormal())
	assert.False(t, m.MarkNormal())
	assert.False(t, m.IsLow())
	assert.False(t, m.Filled())
	assert.False(t, m.Healthy())
	assert.Equal(t, []bool{true, false}, edges)
}

func TestHealthyNeedsFreshFastWindow(t *testing.T) {
	m := NewMonitor(WithThresholds(45, 55))
	for range 30 {
		m.Sample(slow)
	}
	m.ResetWindow()
	for range 29 {
		m.Sample(fast)
	}
	assert.False(t, m.Healthy())
	m.Sample(fast)
	assert.True(t, m.Healthy())
	assert.True(t, m.IsLow())
}

func TestHealthyWaitsForWindowAfterLowEdge(t *testing.T) {
	m := NewMonitor(WithThresholds(45, 55))
	for range 30 {
		m.Sample(slow)
	}
	require.True(t, m.IsLow())
	assert.False(t, m.Filled())

	// Fast samples pull the buffer mean past the recovery threshold well before the
	// window refills, but only samples taken after the edge count.
	for i := range 29 {
		m.Sample(5 * time.Millisecond)
		assert.False(t, m.Healthy(), "healthy after %d samples", i+1)
	}
	m.Sample(5 * time.Millisecond)
	assert.True(t, m.Healthy())
}

func TestFPSIsBufferMean(t *testing.T) {
	m := NewMonitor(WithCapacity(4), WithWindow(2))
	assert.Zero(t, m.FPS())

	m.Sample(10 * time.Millisecond)
	m.Sample(30 * time.Millisecond)
	assert.InDelta(t, 50, m.FPS(), 0.001)

	// Oldest samples drop once the buffer is full.
	for range 4 {
		m.Sample(20 * time.Millisecond)
	}
	assert.InDelta(t, 50, m.FPS(), 0.001)
	assert.False(t, m.Sample(0))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMonitor()
	m.Sample(16 * time.Millisecond)
	m.Sample(16 * time.Millisecond)
	m.RecordFrameCost(3, 1200)
	m.SetGPUMemory(1 << 20)

	got := m.Metrics()
	assert.InDelta(t, 62.5, got.FPS, 0.001)
	assert.Equal(t, 16*time.Millisecond, got.FrameTime)
	assert.Zero(t, got.Jitter)
	assert.Equal(t, 3, got.DrawCalls)
	assert.Equal(t, 1200, got.TriangleCount)
	assert.GreaterOrEqual(t, got.MemoryEstimate, uint64(1<<20))
	assert.False(t, got.Low)
}

func TestProfilerLogsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewProfiler(logger, time.Second)
	start := p.lastTime

	assert.False(t, p.Tick(start.Add(500*time.Millisecond)))
	assert.True(t, p.Tick(start.Add(2*time.Second)))
	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "fps=1")
}
