package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-prologue/engine/cache"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/Carmen-Shannon/oxy-prologue/engine/session"
)

var (
	// ErrDisposed is returned by operations on a disposed Coordinator.
	ErrDisposed = errors.New("engine: disposed")

	// ErrSuperseded is returned by LoadModelForPage when a later call took over.
	ErrSuperseded = errors.New("engine: superseded by a newer page")

	// ErrFallback is returned by LoadModelForPage in text-only mode.
	ErrFallback = errors.New("engine: text-only fallback active")

	// ErrNotReady is returned by LoadModelForPage while a render session is being built.
	ErrNotReady = errors.New("engine: not ready")

	// ErrNoRenderContext means the host cannot create a GPU context.
	ErrNoRenderContext = errors.New("engine: no render context")

	// ErrInsufficientMemory means the host lacks the memory headroom for 3D presentation.
	ErrInsufficientMemory = errors.New("engine: insufficient memory")

	// ErrSessionFailed wraps render session construction and runtime failures.
	ErrSessionFailed = errors.New("engine: render session failed")
)

// Category groups errors for the user-facing panel.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCapability
	CategoryMemory
	CategoryEngine
)

func (c Category) String() string {
	switch c {
	case CategoryCapability:
		return "capability"
	case CategoryMemory:
		return "memory"
	case CategoryEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Classify maps err to a panel category. Known sentinels are matched first; errors from
// outside the module fall back to keywords in their message.
func Classify(err error) Category {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryUnknown
	case errors.Is(err, ErrNoRenderContext):
		return CategoryCapability
	case errors.Is(err, ErrInsufficientMemory):
		return CategoryMemory
	case errors.Is(err, ErrSessionFailed),
		errors.Is(err, renderer.ErrReleased),
		errors.Is(err, session.ErrDisposed),
		errors.Is(err, cache.ErrDisposed):
		return CategoryEngine
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "webgpu", "wgpu", "adapter", "not supported", "render context", "gpu context"):
		return CategoryCapability
	case containsAny(msg, "memory", "allocation", "oom"):
		return CategoryMemory
	case containsAny(msg, "engine", "scene", "render", "device", "surface"):
		return CategoryEngine
	}
	return CategoryUnknown
}

// Panel is the inline message shown in place of the 3D view.
type Panel struct {
	Category Category
	Title    string
	Message  string
	// Note is always shown so readers know the story goes on.
	Note string
}

// PanelFor builds the panel for err.
func PanelFor(err error) Panel {
	p := Panel{
		Category: Classify(err),
		Note:     "The narrative continues in text.",
	}
	switch p.Category {
	case CategoryCapability:
		p.Title = "3D view unavailable"
		p.Message = "This device cannot display 3D graphics."
	case CategoryMemory:
		p.Title = "Not enough memory"
		p.Message = "There is not enough free memory to display the 3D scene."
	case CategoryEngine:
		p.Title = "3D view stopped"
		p.Message = "The 3D renderer ran into a problem and was turned off."
	default:
		p.Title = "Something went wrong"
		p.Message = "The 3D scene could not be shown."
	}
	return p
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
