package session

import (
	"time"

	"github.com/Carmen-Shannon/oxy-prologue/config"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
)

// Settings are the quality and camera choices a session is built with.
type Settings struct {
	PostProcessing     bool
	Antialias          bool
	RenderScale        float32
	ReducedRenderScale float32
	// FrameLimit caps Run's frame rate; 0 leaves it uncapped.
	FrameLimit   float64
	AutoRotate   float32
	CameraRadius float32
}

// DefaultSettings returns full quality settings.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

// SettingsFromConfig copies the session-related fields of c.
func SettingsFromConfig(c config.Config) Settings {
	return Settings{
		PostProcessing:     c.PostProcessing,
		Antialias:          c.Antialias,
		RenderScale:        c.RenderScale,
		ReducedRenderScale: c.ReducedRenderScale,
		FrameLimit:         c.FrameLimit,
		AutoRotate:         c.AutoRotate,
		CameraRadius:       c.CameraRadius,
	}
}

// Reduced returns s with post-processing and antialiasing off, as used when retrying a
// failed construction.
func (s Settings) Reduced() Settings {
	s.PostProcessing = false
	s.Antialias = false
	return s
}

// Quality returns the renderer quality s describes.
func (s Settings) Quality() renderer.Quality {
	q := renderer.Quality{MSAA: renderer.MSAAOff, RenderScale: s.RenderScale}
	if s.Antialias {
		q.MSAA = renderer.MSAA4x
	}
	if q.RenderScale <= 0 {
		q.RenderScale = 1
	}
	q.Effects = [3]bool{s.PostProcessing, s.PostProcessing, s.PostProcessing}
	return q
}

func (s Settings) frameInterval() time.Duration {
	if s.FrameLimit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.FrameLimit)
}
