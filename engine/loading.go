package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-prologue/engine/animation"
	"github.com/Carmen-Shannon/oxy-prologue/engine/lod"
	"github.com/Carmen-Shannon/oxy-prologue/engine/model"
	"github.com/Carmen-Shannon/oxy-prologue/engine/session"
	"github.com/cenkalti/backoff/v5"
)

// modelKey identifies a cached model.
type modelKey struct {
	Type model.Type
	Page int
}

func (k modelKey) String() string {
	return fmt.Sprintf("%s@%d", k.Type, k.Page)
}

// cachedModel is a constructed model with one mesh per detail tier, finest first.
type cachedModel struct {
	key    modelKey
	meshes []model.Mesh
	table  *lod.Table
}

func (m *cachedModel) Dispose() error {
	var errs []error
	for _, mesh := range m.meshes {
		if err := mesh.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *cachedModel) gpuBytes() uint64 {
	var n uint64
	for _, mesh := range m.meshes {
		n += mesh.GPUBytes()
	}
	return n
}

// tierDetail is the tessellation factor of each detail tier relative to the base mesh.
var tierDetail = [...]float32{1, 0.5, 0.25}

// newCachedModel derives coarser clones of base, one per remaining distance threshold.
// base is disposed if any clone fails.
func newCachedModel(key modelKey, base model.Mesh, distances []float32) (*cachedModel, error) {
	cm := &cachedModel{key: key, meshes: []model.Mesh{base}}
	if len(distances) == 0 {
		distances = []float32{math.MaxFloat32}
	}

	levels := make([]lod.Level, 0, len(distances))
	for i, d := range distances {
		mesh := base
		if i > 0 {
			detail := tierDetail[min(i, len(tierDetail)-1)]
			clone, err := base.Clone(fmt.Sprintf("%s-lod%d", base.Name(), i), detail)
			if err != nil {
				cm.Dispose()
				return nil, err
			}
			cm.meshes = append(cm.meshes, clone)
			mesh = clone
		}
		levels = append(levels, lod.Level{
			Threshold: d,
			Mesh:      mesh,
			Tier:      lod.Tier(min(i, int(lod.TierLow))),
		})
	}

	table, err := lod.NewTable(levels...)
	if err != nil {
		cm.Dispose()
		return nil, err
	}
	table.Hide()
	cm.table = table
	return cm, nil
}

// LoadModelForPage builds or reuses the page's model and swaps it onto the screen.
func (c *coordinator) LoadModelForPage(ctx context.Context, page int) error {
	c.mu.Lock()
	switch c.state {
	case StateDisposed:
		c.mu.Unlock()
		return ErrDisposed
	case StateFallbackTextOnly:
		c.mu.Unlock()
		return ErrFallback
	case StateUninitialized, StateInitializing:
		c.mu.Unlock()
		return ErrNotReady
	}
	if page == c.inflightPage || (c.inflightPage < 0 && page == c.currentPage) {
		c.mu.Unlock()
		return nil
	}

	c.token++
	tok := c.token
	c.inflightPage = page
	typ, mapped := c.pages[page]
	sess := c.sess
	c.setStateLocked(StateLoading)
	c.mu.Unlock()
	c.flush()

	var (
		cm  *cachedModel
		err error
	)
	if !mapped {
		err = model.NewError(model.KindNotFound, "load page", fmt.Errorf("no model for page %d", page))
	} else {
		cm, err = c.loadWithRetry(ctx, tok, modelKey{Type: typ, Page: page}, sess)
	}

	c.mu.Lock()
	switch {
	case c.state == StateDisposed:
		c.mu.Unlock()
		return ErrDisposed
	case tok != c.token:
		c.mu.Unlock()
		return ErrSuperseded
	case c.state != StateLoading:
		c.mu.Unlock()
		return ErrFallback
	}
	c.inflightPage = -1

	if err != nil {
		c.setStateLocked(StateReady)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			c.mu.Unlock()
			c.flush()
			return err
		}
		c.detachLocked()
		c.errs.LastError = err
		desc := model.Describe(typ)
		if !mapped {
			desc = "An empty stretch of the story, with nothing to show."
		}
		if cb := c.onPageFallback; cb != nil {
			c.queueLocked(func() { cb(page, desc) })
		}
		if cb := c.onError; cb != nil {
			c.queueLocked(func() { cb(err, false) })
		}
		c.logger.Warn("page fell back to text", "page", page, "kind", model.KindOf(err).String(), "error", err)
		c.mu.Unlock()
		c.flush()
		return err
	}

	c.attachLocked(cm, page)
	c.setStateLocked(StateReady)
	c.mu.Unlock()
	c.flush()
	return nil
}

// loadWithRetry gets the model from the cache, constructing it on a worker when missing.
// Retries run in performance mode. Only transient failures are retried.
func (c *coordinator) loadWithRetry(ctx context.Context, tok uint64, key modelKey, sess session.Session) (*cachedModel, error) {
	perf := c.monitor.IsLow()
	attempt := 0
	return backoff.Retry(ctx, func() (*cachedModel, error) {
		attempt++
		if c.superseded(tok) {
			return nil, backoff.Permanent(ErrSuperseded)
		}
		perfMode := perf || attempt > 1
		cm, hit, err := c.models.GetOrCreate(ctx, key, func(cctx context.Context) (*cachedModel, error) {
			return c.buildOnWorker(cctx, tok, key, sess, perfMode)
		})
		if err != nil {
			c.logger.Warn("model construction failed", "model", key.String(), "attempt", attempt, "error", err)
			if !model.IsRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		c.logger.Debug("model ready", "model", key.String(), "cached", hit, "performance_mode", perfMode)
		return cm, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.PageRetryBackoff)),
		backoff.WithMaxTries(uint(max(c.cfg.PageRetries, 0)+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying model", "model", key.String(), "in", next, "error", err)
		}),
	)
}

func (c *coordinator) superseded(tok uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tok != c.token
}

type buildResult struct {
	model *cachedModel
	err   error
}

// buildOnWorker runs construction on the worker pool and waits for it. Tasks always report
// back, so the pool is only stopped once every submitted task has finished.
//
// Superseded builds are left to finish and be cached, but they never make the current
// load queue behind them: when they hold the slots it would need, the pool grows.
func (c *coordinator) buildOnWorker(ctx context.Context, tok uint64, key modelKey, sess session.Session, perf bool) (*cachedModel, error) {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return nil, model.NewError(model.KindDisposed, "build "+key.String(), ErrDisposed)
	}
	c.tasks.Add(1)
	id := c.taskID.Add(1)
	busy, stale := len(c.building), 0
	for _, t := range c.building {
		if t != c.token {
			stale++
		}
	}
	c.building[id] = tok
	c.mu.Unlock()

	out := make(chan buildResult, 1)
	task := worker.Task{
		ID:      int(id),
		Payload: key,
		Do: func() (res any, err error) {
			defer c.tasks.Done()
			defer func() {
				c.mu.Lock()
				delete(c.building, id)
				c.mu.Unlock()
			}()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("construct %s: panic: %v", key, r)
					out <- buildResult{err: err}
				}
			}()
			cm, err := c.build(ctx, key, sess, perf)
			out <- buildResult{model: cm, err: err}
			return cm, err
		},
	}

	c.poolMu.Lock()
	if grow := min(stale, busy+1-c.workers); grow > 0 {
		c.pool.IncreaseMaxWorkers(grow)
		c.workers += grow
		c.logger.Debug("grew construction pool past superseded builds", "model", key.String(), "superseded", stale, "workers", c.workers)
	}
	c.pool.SubmitTask(task)
	c.poolMu.Unlock()

	r := <-out
	return r.model, r.err
}

// build constructs the base mesh and its detail tiers.
func (c *coordinator) build(ctx context.Context, key modelKey, sess session.Session, perf bool) (*cachedModel, error) {
	select {
	case <-c.closed:
		return nil, model.NewError(model.KindDisposed, "build "+key.String(), ErrDisposed)
	default:
	}
	if sess == nil || !sess.Live() {
		return nil, model.NewError(model.KindDisposed, "build "+key.String(), errors.New("no live render session"))
	}

	start := time.Now()
	base, err := c.factory.CreateModel(ctx, key.Type, model.Context{
		Scene:           sess.Scene(),
		Renderer:        sess.Renderer(),
		PerformanceMode: perf,
		Materials:       c.materials,
		Page:            key.Page,
	})
	if err != nil {
		return nil, err
	}
	cm, err := newCachedModel(key, base, c.cfg.LODDistances)
	if err != nil {
		return nil, err
	}
	c.logger.Info("model constructed",
		"model", key.String(),
		"tiers", len(cm.meshes),
		"triangles", base.Triangles(),
		"performance_mode", perf,
		"took", time.Since(start),
	)
	return cm, nil
}

// attachLocked shows cm in place of the current model. Caller must hold the mutex.
func (c *coordinator) attachLocked(cm *cachedModel, page int) {
	c.detachLocked()
	if c.sess == nil {
		return
	}
	sc := c.sess.Scene()
	for _, m := range cm.meshes {
		sc.Add(m)
	}

	c.current = cm
	c.currentPage = page
	c.switchLODLocked()

	c.anim = animation.Preset(cm.key.Type, cm.table.ActiveMesh())
	c.anim.SetPaused(c.monitor.IsLow())
	c.monitor.SetGPUMemory(c.cachedBytes())
	c.logger.Info("model attached", "model", cm.key.String(), "tier", cm.table.Level(cm.table.Active()).Tier.String())
}

// detachLocked takes the current model off screen. It stays cached. Caller must hold the mutex.
func (c *coordinator) detachLocked() {
	if c.anim != nil {
		c.anim.Stop()
		c.anim = nil
	}
	if c.current == nil {
		c.currentPage = -1
		return
	}
	c.current.table.Hide()
	if c.sess != nil {
		sc := c.sess.Scene()
		for _, m := range c.current.meshes {
			sc.Remove(m)
		}
	}
	c.current = nil
	c.currentPage = -1
}

// cachedBytes sums the GPU bytes of every cached model.
func (c *coordinator) cachedBytes() uint64 {
	var n uint64
	for _, k := range c.models.Keys() {
		if cm, ok := c.models.Get(k); ok {
			n += cm.gpuBytes()
		}
	}
	return n
}
