package engine

import "time"

// onFrame runs on the render goroutine before each frame is drawn.
func (c *coordinator) onFrame(dt float32) {
	if dt > 0 {
		c.monitor.Sample(time.Duration(float64(dt) * float64(time.Second)))
	}
	if c.monitor.IsLow() && c.monitor.Healthy() {
		c.monitor.MarkNormal()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.state == StateDisposed {
		return
	}
	stats := c.sess.Renderer().Stats()
	c.monitor.RecordFrameCost(stats.DrawCalls, stats.Triangles)

	if c.current == nil {
		return
	}
	c.switchLODLocked()
	if c.anim != nil {
		c.anim.Update(dt)
	}
}

// switchLODLocked shows the detail tier for the camera's distance to the current model,
// shifted coarser while performance is low. Caller must hold the mutex.
func (c *coordinator) switchLODLocked() {
	table := c.current.table
	pos := c.current.meshes[0].Transform().Position
	if active := table.ActiveMesh(); active != nil {
		pos = active.Transform().Position
	}

	idx := table.Coarser(table.Select(c.sess.Camera().DistanceTo(pos)), c.lodBias)
	changed, err := table.SwitchTo(idx)
	if err != nil {
		c.logger.Warn("switch detail tier", "model", c.current.key.String(), "error", err)
		return
	}
	if changed && c.anim != nil {
		c.anim.SetTarget(table.ActiveMesh())
	}
	if changed {
		c.logger.Debug("detail tier", "model", c.current.key.String(), "tier", table.Level(idx).Tier.String())
	}
}

// onPerformanceChange reacts to the monitor's low and normal edges.
func (c *coordinator) onPerformanceChange(low bool) {
	c.mu.Lock()
	sess := c.sess
	if sess == nil || c.state == StateDisposed {
		c.mu.Unlock()
		return
	}
	c.lodBias = 0
	if low {
		c.lodBias = 1
	}
	if c.anim != nil {
		c.anim.SetPaused(low)
	}
	c.mu.Unlock()

	if low {
		sess.ReduceQuality()
		sess.DisableEffects()
		c.logger.Info("performance mode on")
		return
	}
	sess.RestoreQuality()
	c.logger.Info("performance mode off")
}
