package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-prologue/engine/capability"
	"github.com/Carmen-Shannon/oxy-prologue/engine/session"
	"github.com/cenkalti/backoff/v5"
)

// initialize runs capability detection and, if a render context exists, builds the session.
func (c *coordinator) initialize(ctx context.Context) error {
	c.mu.Lock()
	c.setStateLocked(StateInitializing)
	c.mu.Unlock()
	c.flush()

	report := c.detector.Detect(ctx)
	c.mu.Lock()
	c.report = report
	c.mu.Unlock()
	c.logger.Info("capability detected",
		"render_context", report.HasRenderContext,
		"memory_headroom", report.HasMemoryHeadroom,
		"adapter", report.Adapter,
		"reason", report.Reason,
	)

	if !report.HasRenderContext {
		err := fmt.Errorf("%w: %s", ErrNoRenderContext, report.Reason)
		c.mu.Lock()
		c.errs.LastError = err
		c.enterFallbackLocked(err)
		c.mu.Unlock()
		c.flush()
		return err
	}
	return c.startSession(ctx, report)
}

// startSession builds a render session, retrying with reduced settings after the first
// failure. Without memory headroom a single reduced attempt is made.
func (c *coordinator) startSession(ctx context.Context, report capability.Report) error {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.setStateLocked(StateInitializing)
	c.errs.RetryCount = 0
	c.mu.Unlock()
	c.flush()

	tries := uint(max(c.cfg.MaxRetries, 1))
	if !report.HasMemoryHeadroom {
		tries = 1
	}
	settings := session.SettingsFromConfig(c.cfg)

	attempt := 0
	sess, err := backoff.Retry(ctx, func() (session.Session, error) {
		attempt++
		c.mu.Lock()
		if c.state == StateDisposed {
			c.mu.Unlock()
			return nil, backoff.Permanent(ErrDisposed)
		}
		c.errs.RetryCount = attempt
		c.mu.Unlock()

		st := settings
		if attempt > 1 || !report.HasMemoryHeadroom {
			st = st.Reduced()
		}
		s, err := c.construct(ctx, st)
		if err == nil {
			return s, nil
		}

		c.mu.Lock()
		c.errs.ErrorCount++
		c.errs.LastError = err
		c.mu.Unlock()
		c.logger.Warn("render session construction failed", "attempt", attempt, "of", tries, "error", err)
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.RetryBackoff)),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying render session", "in", next, "error", err)
		}),
	)
	if err == nil {
		if err = sess.RegisterRenderLoop(c.onFrame); err != nil {
			sess.Dispose()
		}
	}
	if err != nil {
		if errors.Is(err, ErrDisposed) {
			return ErrDisposed
		}
		err = fmt.Errorf("%w after %d attempts: %w", ErrSessionFailed, attempt, err)
		if !report.HasMemoryHeadroom {
			err = fmt.Errorf("%w: %w", ErrInsufficientMemory, err)
		}
		c.mu.Lock()
		if c.state == StateDisposed {
			c.mu.Unlock()
			return ErrDisposed
		}
		c.errs.LastError = err
		c.enterFallbackLocked(err)
		c.mu.Unlock()
		c.flush()
		return err
	}

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		sess.Dispose()
		return ErrDisposed
	}
	c.sess = sess
	c.monitor.ResetWindow()
	c.setStateLocked(StateReady)
	c.mu.Unlock()
	c.flush()

	c.monitor.MarkNormal()
	if c.autoRun {
		sess.Run()
	}
	c.logger.Info("render session ready", "session", sess.ID().String(), "attempts", attempt)
	return nil
}

// enterFallbackLocked switches to text-only mode and tears down the session.
// Caller must hold the mutex and call flush after unlocking.
func (c *coordinator) enterFallbackLocked(err error) {
	c.token++
	c.inflightPage = -1
	c.detachLocked()

	if sess := c.sess; sess != nil {
		c.sess = nil
		// Cached meshes belong to this session's renderer.
		live := sess.Live()
		sess.Dispose(c.dropModels)
		if !live {
			c.dropModels()
		}
	}

	c.setStateLocked(StateFallbackTextOnly)
	if cb := c.onError; cb != nil {
		c.queueLocked(func() { cb(err, true) })
	}
	c.logger.Error("presentation fell back to text", "category", Classify(err).String(), "error", err)
}

func (c *coordinator) dropModels() {
	if err := c.models.Clear(); err != nil {
		c.logger.Warn("drop cached models", "error", err)
	}
	c.monitor.SetGPUMemory(0)
}

// onSessionFatal handles a failure reported by the session's render goroutine.
func (c *coordinator) onSessionFatal(err error) {
	err = fmt.Errorf("%w: %w", ErrSessionFailed, err)

	c.mu.Lock()
	if c.state == StateDisposed || c.state == StateFallbackTextOnly {
		c.mu.Unlock()
		return
	}
	c.errs.ErrorCount++
	c.errs.LastError = err
	c.enterFallbackLocked(err)
	c.mu.Unlock()
	c.flush()
}

// AttemptRecovery returns false outside text-only mode.
func (c *coordinator) AttemptRecovery(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != StateFallbackTextOnly {
		c.mu.Unlock()
		return false
	}
	c.errs = ErrorState{InFallback: true}
	report := c.report
	c.mu.Unlock()

	if !report.HasRenderContext {
		c.logger.Info("recovery skipped", "reason", report.Reason)
		return false
	}
	c.logger.Info("attempting recovery")
	return c.startSession(ctx, report) == nil
}
