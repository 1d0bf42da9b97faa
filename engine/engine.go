// Package engine coordinates the 3D presentation that accompanies the narrative pages:
// capability detection, render session construction with retries, per-page model
// loading, adaptive quality and the text-only fallback.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-prologue/config"
	"github.com/Carmen-Shannon/oxy-prologue/engine/animation"
	"github.com/Carmen-Shannon/oxy-prologue/engine/cache"
	"github.com/Carmen-Shannon/oxy-prologue/engine/capability"
	"github.com/Carmen-Shannon/oxy-prologue/engine/model"
	"github.com/Carmen-Shannon/oxy-prologue/engine/profiler"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-prologue/engine/session"
	"github.com/Carmen-Shannon/oxy-prologue/engine/window"
)

const (
	mb = 1 << 20

	taskQueueSize   = 256
	workerIdleAfter = time.Second
)

// coordinator is the implementation of the Coordinator interface.
type coordinator struct {
	mu     *sync.Mutex
	cfg    config.Config
	logger *slog.Logger

	container window.Window
	detector  capability.Detector
	construct session.Constructor
	factory   model.Factory
	pages     map[int]model.Type
	autoRun   bool

	onError        func(err error, fatal bool)
	onLoading      func(loading bool)
	onState        func(from, to State)
	onPageFallback func(page int, description string)

	state  State
	report capability.Report
	errs   ErrorState

	sess    session.Session
	monitor *profiler.Monitor

	models    *cache.Store[modelKey, *cachedModel]
	materials *cache.Store[string, material.Material]
	pool      worker.DynamicWorkerPool
	poolMu    *sync.Mutex
	workers   int
	building  map[int64]uint64 // task ID to the load token that submitted it
	tasks     sync.WaitGroup
	taskID    atomic.Int64

	current      *cachedModel
	currentPage  int
	inflightPage int
	token        uint64
	anim         animation.Animation
	lodBias      int

	pending  []func()
	flushing atomic.Bool

	closed      chan struct{}
	disposeOnce sync.Once
}

// Coordinator drives the 3D presentation for a sequence of narrative pages.
//
// All methods are safe for concurrent use. Callbacks are never invoked while internal locks
// are held, so they may call back into the Coordinator.
type Coordinator interface {
	// LoadModelForPage shows the model mapped to page, constructing it on first use.
	// Requests for the page already shown or already in flight are no-ops. A later call
	// supersedes an earlier one that has not finished.
	//
	// Parameters:
	//   - ctx: bounds how long the caller waits; construction itself keeps running and lands in the cache
	//   - page: the narrative page index
	//
	// Returns:
	//   - error: nil when the model is shown or the call was a no-op; ErrSuperseded, ErrFallback,
	//     ErrDisposed, or the page's construction error after its retries ran out
	LoadModelForPage(ctx context.Context, page int) error

	// AttemptRecovery leaves text-only mode by rebuilding the render session, if the stored
	// capability report allows it.
	//
	// Parameters:
	//   - ctx: cancels the construction retries
	//
	// Returns:
	//   - bool: true if a render session is live again
	AttemptRecovery(ctx context.Context) bool

	// Frame renders one frame of the live session. Hosts that let the session run its own
	// render goroutine never need to call it.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - bool: true if a frame was drawn
	Frame(dt float32) bool

	// Resize forwards a framebuffer size change to the live session.
	Resize(width, height int) error

	// ClearCache disposes every cached model except the one on screen.
	//
	// Returns:
	//   - error: joined disposal errors
	ClearCache() error

	// Dispose tears everything down. Safe to call more than once.
	Dispose()

	// State returns the lifecycle state.
	State() State

	// IsInFallbackMode reports whether the presentation is text-only.
	IsInFallbackMode() bool

	// ErrorState returns a snapshot of the failure bookkeeping.
	ErrorState() ErrorState

	// Capability returns the report captured at initialization.
	Capability() capability.Report

	// PerformanceMetrics returns a snapshot of the frame statistics.
	PerformanceMetrics() profiler.Metrics

	// CurrentPage returns the page whose model is shown, or -1.
	CurrentPage() int

	// PageDescription returns the text shown in place of the page's model.
	PageDescription(page int) string
}

var _ Coordinator = &coordinator{}

// New detects host capability and, when possible, builds a render session.
// Without a container the session renders headless.
//
// A host that cannot present 3D content, or a session that fails every construction
// attempt, leaves the Coordinator in text-only mode. In that case New still returns a usable
// Coordinator and a nil error unless fallbacks are disabled in the configuration.
//
// Parameters:
//   - ctx: bounds detection and construction retries
//   - options: functional options to configure the Coordinator
//
// Returns:
//   - Coordinator: the coordinator
//   - error: the initialization failure when fallbacks are disabled
func New(ctx context.Context, options ...CoordinatorBuilderOption) (Coordinator, error) {
	c := &coordinator{
		mu:           &sync.Mutex{},
		cfg:          config.Default(),
		autoRun:      true,
		currentPage:  -1,
		inflightPage: -1,
		poolMu:       &sync.Mutex{},
		building:     make(map[int64]uint64),
		closed:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.logger == nil {
		c.logger = config.NewLogger(c.cfg)
	}
	c.logger = c.logger.With("component", "engine")

	if c.pages == nil {
		c.pages = defaultPages()
	}
	if c.factory == nil {
		c.factory = model.DefaultRegistry()
	}
	if c.detector == nil {
		c.detector = capability.NewDetector(
			capability.WithLogger(c.logger),
			capability.WithMinHeadroom(uint64(c.cfg.MinMemoryMB)*mb),
			capability.WithDeviceMemory(uint64(c.cfg.DeviceMemoryMB)*mb),
		)
	}
	if c.construct == nil {
		sessionOpts := []session.SessionBuilderOption{
			session.WithLogger(c.logger),
			session.WithOnFatal(c.onSessionFatal),
		}
		if c.container != nil {
			c.construct = session.NewWGPUConstructor(c.container, sessionOpts...)
		} else {
			c.construct = session.NewHeadlessConstructor(sessionOpts...)
		}
	}

	c.monitor = profiler.NewMonitor(
		profiler.WithCapacity(c.cfg.SampleCapacity),
		profiler.WithWindow(c.cfg.SampleWindow),
		profiler.WithThresholds(c.cfg.LowFPS, c.cfg.RecoverFPS),
		profiler.WithStatsInterval(c.cfg.StatsInterval),
		profiler.WithLogger(c.logger),
		profiler.WithOnChange(c.onPerformanceChange),
	)
	c.models = cache.New[modelKey, *cachedModel]("models", cache.WithLogger(c.logger))
	c.materials = cache.New[string, material.Material]("materials", cache.WithLogger(c.logger))
	c.workers = max(c.cfg.Workers, 1)
	c.pool = worker.NewDynamicWorkerPool(c.workers, taskQueueSize, workerIdleAfter)

	if err := c.initialize(ctx); err != nil && !c.cfg.EnableFallbacks {
		c.Dispose()
		return nil, err
	}
	return c, nil
}

func defaultPages() map[int]model.Type {
	pages := make(map[int]model.Type)
	for i, t := range model.Types() {
		pages[i] = t
	}
	return pages
}

func (c *coordinator) Frame(dt float32) bool {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return false
	}
	return sess.Frame(dt)
}

func (c *coordinator) Resize(width, height int) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	return sess.Resize(width, height)
}

func (c *coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *coordinator) IsInFallbackMode() bool {
	return c.State() == StateFallbackTextOnly
}

func (c *coordinator) Capability() capability.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

func (c *coordinator) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

func (c *coordinator) PageDescription(page int) string {
	c.mu.Lock()
	t, ok := c.pages[page]
	c.mu.Unlock()
	if !ok {
		return "An empty stretch of the story, with nothing to show."
	}
	return model.Describe(t)
}

func (c *coordinator) ClearCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisposed {
		return ErrDisposed
	}
	var keep []modelKey
	if c.current != nil {
		keep = append(keep, c.current.key)
	}
	err := c.models.Clear(keep...)
	c.monitor.SetGPUMemory(c.cachedBytes())
	return err
}

func (c *coordinator) Dispose() {
	c.disposeOnce.Do(func() {
		c.mu.Lock()
		c.setStateLocked(StateDisposed)
		close(c.closed)
		c.token++
		c.inflightPage = -1
		c.detachLocked()
		sess := c.sess
		c.sess = nil
		c.mu.Unlock()
		c.flush()

		if sess != nil {
			sess.Dispose(c.disposeCaches)
		} else {
			c.disposeCaches()
		}

		// Queued construction tasks bail out early once closed; stop the pool after them.
		go func() {
			c.tasks.Wait()
			c.pool.Stop()
		}()
		c.logger.Info("coordinator disposed")
	})
}

func (c *coordinator) disposeCaches() {
	if err := c.models.Dispose(); err != nil {
		c.logger.Warn("dispose model cache", "error", err)
	}
	if err := c.materials.Dispose(); err != nil {
		c.logger.Warn("dispose material cache", "error", err)
	}
}

// setStateLocked records a transition and queues the callbacks it implies.
// Caller must hold the mutex and call flush after unlocking.
func (c *coordinator) setStateLocked(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.errs.InFallback = to == StateFallbackTextOnly
	c.logger.Debug("state change", "from", from.String(), "to", to.String())

	if cb := c.onState; cb != nil {
		c.pending = append(c.pending, func() { cb(from, to) })
	}
	if cb := c.onLoading; cb != nil && from.busy() != to.busy() {
		loading := to.busy()
		c.pending = append(c.pending, func() { cb(loading) })
	}
}

// queueLocked schedules fn to run on the next flush. Caller must hold the mutex.
func (c *coordinator) queueLocked(fn func()) {
	c.pending = append(c.pending, fn)
}

// flush runs queued callbacks outside the mutex, in order. A flush started from inside a
// callback leaves the work to the outer flush.
func (c *coordinator) flush() {
	for {
		if !c.flushing.CompareAndSwap(false, true) {
			return
		}
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()

		for _, fn := range batch {
			c.runCallback(fn)
		}
		c.flushing.Store(false)

		c.mu.Lock()
		more := len(c.pending) > 0
		c.mu.Unlock()
		if !more {
			return
		}
	}
}

func (c *coordinator) runCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("callback panic", "error", r)
		}
	}()
	fn()
}
