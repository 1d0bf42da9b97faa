// Package capability decides once whether the host can present 3D content at all.
package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

const mb = 1 << 20

// Report is the immutable result of a capability check.
type Report struct {
	// HasRenderContext is true when a GPU adapter could be acquired.
	HasRenderContext bool
	// HasMemoryHeadroom is true when at least the configured minimum memory is free.
	HasMemoryHeadroom bool
	// Adapter describes the acquired adapter.
	Adapter string
	// HeadroomBytes is the estimated free memory; math.MaxUint64 when unbounded.
	HeadroomBytes uint64
	// Reason explains a negative result.
	Reason string
}

// Capable reports whether both the render context and memory headroom are available.
func (r Report) Capable() bool {
	return r.HasRenderContext && r.HasMemoryHeadroom
}

// RenderProbe tries to acquire a GPU adapter and returns its description.
type RenderProbe func() (string, error)

// MemoryProbe returns the estimated free memory in bytes.
type MemoryProbe func() uint64

// Detector produces a capability Report.
type Detector interface {
	// Detect runs the probes on first call and returns the same Report afterwards.
	//
	// Parameters:
	//   - ctx: bounds how long the first call waits for the render probe
	//
	// Returns:
	//   - Report: the capability report
	Detect(ctx context.Context) Report
}

// detector is the implementation of the Detector interface.
type detector struct {
	logger       *slog.Logger
	render       RenderProbe
	memory       MemoryProbe
	minHeadroom  uint64
	deviceMemory uint64
	fallback     bool

	once   sync.Once
	report Report
}

var _ Detector = &detector{}

// NewDetector creates a Detector probing wgpu for an adapter and the Go runtime for
// memory headroom.
//
// Parameters:
//   - options: functional options to configure the probes
//
// Returns:
//   - Detector: the detector
func NewDetector(options ...DetectorBuilderOption) Detector {
	d := &detector{
		logger:      slog.Default(),
		minHeadroom: 256 * mb,
	}
	for _, opt := range options {
		opt(d)
	}
	d.logger = d.logger.With("component", "capability")
	if d.render == nil {
		d.render = wgpuProbe(d.fallback)
	}
	if d.memory == nil {
		d.memory = runtimeHeadroom(d.deviceMemory)
	}
	return d
}

func (d *detector) Detect(ctx context.Context) Report {
	d.once.Do(func() {
		d.report = d.detect(ctx)
		d.logger.Debug("capability probed",
			"render", d.report.HasRenderContext,
			"memory", d.report.HasMemoryHeadroom,
			"adapter", d.report.Adapter,
			"reason", d.report.Reason,
		)
	})
	return d.report
}

func (d *detector) detect(ctx context.Context) Report {
	type result struct {
		adapter string
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("render probe panic: %v", r)}
			}
		}()
		a, err := d.render()
		ch <- result{adapter: a, err: err}
	}()

	var rep Report
	select {
	case res := <-ch:
		if res.err != nil {
			rep.Reason = res.err.Error()
			return rep
		}
		rep.HasRenderContext = true
		rep.Adapter = res.adapter
	case <-ctx.Done():
		rep.Reason = fmt.Sprintf("render probe: %v", ctx.Err())
		return rep
	}

	rep.HeadroomBytes = d.memory()
	rep.HasMemoryHeadroom = rep.HeadroomBytes >= d.minHeadroom
	if !rep.HasMemoryHeadroom {
		rep.Reason = fmt.Sprintf("insufficient memory: %d MB free, %d MB required", rep.HeadroomBytes/mb, d.minHeadroom/mb)
	}
	return rep
}

// fixed is a Detector returning a preset Report.
type fixed struct {
	report Report
}

// Fixed returns a Detector that always reports r without probing.
func Fixed(r Report) Detector {
	return fixed{report: r}
}

func (f fixed) Detect(context.Context) Report {
	return f.report
}

// wgpuProbe acquires and immediately releases a wgpu adapter.
func wgpuProbe(forceFallback bool) RenderProbe {
	return func() (string, error) {
		instance := wgpu.CreateInstance(nil)
		if instance == nil {
			return "", errors.New("no wgpu instance")
		}
		defer instance.Release()

		adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			ForceFallbackAdapter: forceFallback,
		})
		if err != nil {
			return "", fmt.Errorf("request adapter: %w", err)
		}
		adapter.Release()
		if forceFallback {
			return "wgpu (software)", nil
		}
		return "wgpu", nil
	}
}

// runtimeHeadroom estimates free memory from the runtime memory limit, or from
// deviceMemory when set. Without either bound, memory is treated as unbounded.
func runtimeHeadroom(deviceMemory uint64) MemoryProbe {
	return func() uint64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		budget := deviceMemory
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			if budget == 0 || uint64(limit) < budget {
				budget = uint64(limit)
			}
		}
		if budget == 0 {
			return math.MaxUint64
		}
		if ms.Sys >= budget {
			return 0
		}
		return budget - ms.Sys
	}
}
