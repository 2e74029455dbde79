package neural

import (
	"sync"
	"time"
)

// Batch controller defaults.
const (
	DefaultInitialBatch     = 100
	DefaultMinBatch         = 10
	DefaultMaxBatch         = 1000
	DefaultTargetLatency    = time.Second
	DefaultTargetThroughput = 10000.0
	defaultHistory          = 50
	adjustWindow            = 5
)

type batchSample struct {
	size    int
	latency time.Duration
}

// BatchController adapts the batch size to the backend. It shrinks batches
// by 20% when the recent average latency is above target and grows them by
// 20% when latency is fine but throughput is below target.
type BatchController struct {
	mu               sync.Mutex
	size             int
	minSize          int
	maxSize          int
	targetLatency    time.Duration
	targetThroughput float64
	history          []batchSample
}

// NewBatchController creates a controller with the default bounds.
func NewBatchController() *BatchController {
	return &BatchController{
		size:             DefaultInitialBatch,
		minSize:          DefaultMinBatch,
		maxSize:          DefaultMaxBatch,
		targetLatency:    DefaultTargetLatency,
		targetThroughput: DefaultTargetThroughput,
	}
}

// Size returns the current batch size.
func (c *BatchController) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Record adds one completed batch and adjusts the size. It returns the new size.
func (c *BatchController) Record(size int, latency time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, batchSample{size: size, latency: latency})
	if len(c.history) > defaultHistory {
		c.history = c.history[len(c.history)-defaultHistory:]
	}
	if len(c.history) < adjustWindow {
		return c.size
	}

	recent := c.history[len(c.history)-adjustWindow:]
	var total time.Duration
	generated := 0
	for _, s := range recent {
		total += s.latency
		generated += s.size
	}
	avg := total / adjustWindow

	switch {
	case avg > c.targetLatency:
		c.size = max(c.minSize, c.size*4/5)
	case total > 0 && float64(generated)/total.Seconds() < c.targetThroughput:
		c.size = min(c.maxSize, c.size*6/5)
	}
	return c.size
}
