package capability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okProbe(calls *atomic.Int32) RenderProbe {
	return func() (string, error) {
		calls.Add(1)
		return "test adapter", nil
	}
}

func TestDetectRunsOnce(t *testing.T) {
	var calls atomic.Int32
	d := NewDetector(
		WithRenderProbe(okProbe(&calls)),
		WithMemoryProbe(func() uint64 { return 512 * mb }),
	)

	first := d.Detect(context.Background())
	second := d.Detect(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, first.Capable())
	assert.Equal(t, "test adapter", first.Adapter)
	assert.Equal(t, uint64(512*mb), first.HeadroomBytes)
}

func TestDetectNoRenderContext(t *testing.T) {
	memoryChecked := false
	d := NewDetector(
		WithRenderProbe(func() (string, error) { return "", errors.New("no adapter") }),
		WithMemoryProbe(func() uint64 { memoryChecked = true; return 0 }),
	)
	r := d.Detect(context.Background())
	assert.False(t, r.HasRenderContext)
	assert.False(t, r.Capable())
	assert.Equal(t, "no adapter", r.Reason)
	assert.False(t, memoryChecked)
}

func TestDetectLowMemory(t *testing.T) {
	var calls atomic.Int32
	d := NewDetector(
		WithRenderProbe(okProbe(&calls)),
		WithMemoryProbe(func() uint64 { return 64 * mb }),
		WithMinHeadroom(128*mb),
	)
	r := d.Detect(context.Background())
	assert.True(t, r.HasRenderContext)
	assert.False(t, r.HasMemoryHeadroom)
	assert.Contains(t, r.Reason, "insufficient memory")
}

func TestDetectProbePanicAndTimeout(t *testing.T) {
	r := NewDetector(WithRenderProbe(func() (string, error) { panic("driver crash") })).Detect(context.Background())
	assert.False(t, r.HasRenderContext)
	assert.Contains(t, r.Reason, "driver crash")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	block := make(chan struct{})
	defer close(block)
	r = NewDetector(WithRenderProbe(func() (string, error) { <-block; return "late", nil })).Detect(ctx)
	assert.False(t, r.HasRenderContext)
	assert.Contains(t, r.Reason, "deadline")
}

func TestRuntimeHeadroom(t *testing.T) {
	assert.Equal(t, uint64(0), runtimeHeadroom(1)())
	assert.Positive(t, runtimeHeadroom(1<<40)())
}

func TestFixed(t *testing.T) {
	want := Report{HasRenderContext: false, Reason: "forced"}
	assert.Equal(t, want, Fixed(want).Detect(context.Background()))
}
