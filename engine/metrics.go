package engine

import "github.com/Carmen-Shannon/oxy-prologue/engine/profiler"

func (c *coordinator) PerformanceMetrics() profiler.Metrics {
	return c.monitor.Metrics()
}

func (c *coordinator) ErrorState() ErrorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}
