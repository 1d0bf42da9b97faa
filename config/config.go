package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PROLOGUE_"

// Config holds the tunables of the presentation controller.
// Zero values are not meaningful; start from Default or Load.
type Config struct {
	// EnableFallbacks routes unrecoverable failures into text-only mode instead of returning them.
	EnableFallbacks bool `env:"ENABLE_FALLBACKS" envDefault:"true"`

	// MaxRetries bounds render session construction attempts.
	MaxRetries   int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`

	// PageRetries bounds additional construction attempts for a single page.
	PageRetries      int           `env:"PAGE_RETRIES" envDefault:"2"`
	PageRetryBackoff time.Duration `env:"PAGE_RETRY_BACKOFF" envDefault:"250ms"`

	LowFPS         float64 `env:"LOW_FPS" envDefault:"45"`
	RecoverFPS     float64 `env:"RECOVER_FPS" envDefault:"55"`
	SampleWindow   int     `env:"SAMPLE_WINDOW" envDefault:"30"`
	SampleCapacity int     `env:"SAMPLE_CAPACITY" envDefault:"60"`

	// LODDistances holds one camera distance threshold per detail tier, finest first.
	// The coarsest tier also covers everything beyond the last threshold.
	LODDistances []float32 `env:"LOD_DISTANCES" envDefault:"40,80,160" envSeparator:","`

	PostProcessing     bool    `env:"POST_PROCESSING" envDefault:"true"`
	Antialias          bool    `env:"ANTIALIAS" envDefault:"true"`
	RenderScale        float32 `env:"RENDER_SCALE" envDefault:"1"`
	ReducedRenderScale float32 `env:"REDUCED_RENDER_SCALE" envDefault:"0.66"`

	// MinMemoryMB is the headroom required before a render session is attempted.
	MinMemoryMB int `env:"MIN_MEMORY_MB" envDefault:"256"`
	// DeviceMemoryMB overrides the detected device memory when non-zero.
	DeviceMemoryMB int `env:"DEVICE_MEMORY_MB" envDefault:"0"`

	Workers    int     `env:"WORKERS" envDefault:"2"`
	FrameLimit float64 `env:"FRAME_LIMIT" envDefault:"60"`

	AutoRotate   float32 `env:"AUTO_ROTATE" envDefault:"0.25"`
	CameraRadius float32 `env:"CAMERA_RADIUS" envDefault:"60"`

	// StatsInterval enables the periodic profiler log line when non-zero.
	StatsInterval time.Duration `env:"STATS_INTERVAL" envDefault:"0s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Default returns the built-in configuration without consulting the environment.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		EnableFallbacks:    true,
		MaxRetries:         3,
		RetryBackoff:       time.Second,
		PageRetries:        2,
		PageRetryBackoff:   250 * time.Millisecond,
		LowFPS:             45,
		RecoverFPS:         55,
		SampleWindow:       30,
		SampleCapacity:     60,
		LODDistances:       []float32{40, 80, 160},
		PostProcessing:     true,
		Antialias:          true,
		RenderScale:        1,
		ReducedRenderScale: 0.66,
		MinMemoryMB:        256,
		Workers:            2,
		FrameLimit:         60,
		AutoRotate:         0.25,
		CameraRadius:       60,
		LogLevel:           "info",
	}
}

// Load parses the configuration from PROLOGUE_* environment variables and validates it.
//
// Returns:
//   - Config: the parsed configuration
//   - error: a parse or validation error
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the environment is invalid.
//
// Parameters:
//   - logger: receives a warning when the fallback is taken, may be nil
//
// Returns:
//   - Config: the parsed or default configuration
func LoadOrDefault(logger *slog.Logger) Config {
	cfg, err := Load()
	if err != nil {
		if logger != nil {
			logger.Warn("invalid environment configuration, using defaults", "error", err)
		}
		return Default()
	}
	return cfg
}

// Validate reports the first inconsistent setting.
//
// Returns:
//   - error: nil when the configuration is usable
func (c Config) Validate() error {
	var errs []error
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries))
	}
	if c.PageRetries < 0 {
		errs = append(errs, fmt.Errorf("page retries must not be negative, got %d", c.PageRetries))
	}
	if c.LowFPS <= 0 {
		errs = append(errs, fmt.Errorf("low fps must be positive, got %v", c.LowFPS))
	}
	if c.RecoverFPS < c.LowFPS {
		errs = append(errs, fmt.Errorf("recover fps %v is below low fps %v", c.RecoverFPS, c.LowFPS))
	}
	if c.SampleWindow <= 0 {
		errs = append(errs, fmt.Errorf("sample window must be positive, got %d", c.SampleWindow))
	}
	if c.SampleCapacity < c.SampleWindow {
		errs = append(errs, fmt.Errorf("sample capacity %d is smaller than window %d", c.SampleCapacity, c.SampleWindow))
	}
	if len(c.LODDistances) == 0 {
		errs = append(errs, errors.New("at least one lod distance is required"))
	}
	for i := 1; i < len(c.LODDistances); i++ {
		if c.LODDistances[i] <= c.LODDistances[i-1] {
			errs = append(errs, fmt.Errorf("lod distances must be strictly increasing: %v", c.LODDistances))
			break
		}
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.RenderScale <= 0 || c.ReducedRenderScale <= 0 {
		errs = append(errs, errors.New("render scales must be positive"))
	}
	return errors.Join(errs...)
}

// NewLogger builds a text slog.Logger writing to stderr at the configured level.
//
// Parameters:
//   - c: the configuration providing LogLevel
//
// Returns:
//   - *slog.Logger: the logger
func NewLogger(c Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(c.LogLevel)}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
