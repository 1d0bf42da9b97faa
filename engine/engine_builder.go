package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-prologue/config"
	"github.com/Carmen-Shannon/oxy-prologue/engine/capability"
	"github.com/Carmen-Shannon/oxy-prologue/engine/model"
	"github.com/Carmen-Shannon/oxy-prologue/engine/session"
	"github.com/Carmen-Shannon/oxy-prologue/engine/window"
)

// CoordinatorBuilderOption is a functional option for configuring a Coordinator.
// Use the With* functions to create options that are applied directly to the coordinator instance.
type CoordinatorBuilderOption func(*coordinator)

// WithContainer renders into the given window. Without a container the session is headless.
//
// Parameters:
//   - w: the window that hosts the 3D view
//
// Returns:
//   - CoordinatorBuilderOption: option function to apply
func WithContainer(w window.Window) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.container = w
	}
}

// WithConfig replaces the default configuration.
//
// Parameters:
//   - cfg: the configuration, typically from config.Load
//
// Returns:
//   - CoordinatorBuilderOption: option function to apply
func WithConfig(cfg config.Config) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to one built from the configuration's log level.
func WithLogger(logger *slog.Logger) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.logger = logger
	}
}

// WithOnError registers the error callback. fatal is true when the error put the
// presentation into text-only mode, false when only a single page fell back to text.
//
// Parameters:
//   - cb: the callback
//
// Returns:
//   - CoordinatorBuilderOption: option function to apply
func WithOnError(cb func(err error, fatal bool)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onError = cb
	}
}

// WithOnLoadingStateChange registers a callback fired once when a loading indicator
// should appear and once when it should go away.
func WithOnLoadingStateChange(cb func(loading bool)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onLoading = cb
	}
}

// WithOnStateChange registers a callback fired on every lifecycle transition.
func WithOnStateChange(cb func(from, to State)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onState = cb
	}
}

// WithOnPageFallback registers a callback fired when a single page's model could not be
// built and its description should be shown instead.
//
// Parameters:
//   - cb: receives the page index and the description text
//
// Returns:
//   - CoordinatorBuilderOption: option function to apply
func WithOnPageFallback(cb func(page int, description string)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onPageFallback = cb
	}
}

// WithFactory replaces the model factory. Defaults to model.DefaultRegistry.
func WithFactory(f model.Factory) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.factory = f
	}
}

// WithDetector replaces the capability detector.
func WithDetector(d capability.Detector) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.detector = d
	}
}

// WithSessionConstructor replaces how render sessions are built.
func WithSessionConstructor(construct session.Constructor) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.construct = construct
	}
}

// WithPageModel maps a page to a model archetype. The first use replaces the default
// mapping of pages 0 to 3 onto the four archetypes.
//
// Parameters:
//   - page: the narrative page index
//   - t: the archetype shown on that page
//
// Returns:
//   - CoordinatorBuilderOption: option function to apply
func WithPageModel(page int, t model.Type) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if c.pages == nil {
			c.pages = make(map[int]model.Type)
		}
		c.pages[page] = t
	}
}

// WithRenderLoop controls whether the session runs its own render goroutine.
// Disable it when the host calls Frame itself. Enabled by default.
func WithRenderLoop(enabled bool) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.autoRun = enabled
	}
}
