package capability

import "log/slog"

// DetectorBuilderOption is a functional option for configuring a Detector.
type DetectorBuilderOption func(*detector)

// WithLogger sets the logger for the detection record.
func WithLogger(logger *slog.Logger) DetectorBuilderOption {
	return func(d *detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRenderProbe replaces the wgpu adapter probe.
//
// Parameters:
//   - probe: returns an adapter description, or an error when no adapter is usable
//
// Returns:
//   - DetectorBuilderOption: option function to apply
func WithRenderProbe(probe RenderProbe) DetectorBuilderOption {
	return func(d *detector) {
		d.render = probe
	}
}

// WithMemoryProbe replaces the runtime memory probe.
func WithMemoryProbe(probe MemoryProbe) DetectorBuilderOption {
	return func(d *detector) {
		d.memory = probe
	}
}

// WithMinHeadroom sets the free memory required for 3D presentation.
//
// Parameters:
//   - bytes: minimum free bytes
//
// Returns:
//   - DetectorBuilderOption: option function to apply
func WithMinHeadroom(bytes uint64) DetectorBuilderOption {
	return func(d *detector) {
		d.minHeadroom = bytes
	}
}

// WithDeviceMemory caps the memory budget for hosts that report no runtime limit.
// Zero leaves the budget to the runtime memory limit.
func WithDeviceMemory(bytes uint64) DetectorBuilderOption {
	return func(d *detector) {
		d.deviceMemory = bytes
	}
}

// WithForceSoftwareAdapter makes the default render probe ask for a software adapter.
func WithForceSoftwareAdapter(force bool) DetectorBuilderOption {
	return func(d *detector) {
		d.fallback = force
	}
}
