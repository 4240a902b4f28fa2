// Package resource implements the Controller governing asset-load
// concurrency and IO throughput.
//
// The Controller is the loader's throttle: a weighted semaphore bounds
// the number of simultaneous in-flight file reads, and an optional
// token-bucket limiter caps background IO so streaming never starves
// the frame loop's own disk traffic.
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional throttling without nil checks everywhere.
package resource

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds the loader limits.
type Config struct {
	// MaxConcurrentLoads is the maximum number of simultaneous
	// in-flight asset reads. If 0, defaults to 1.
	MaxConcurrentLoads int64

	// IOLimitBytesPerSec is the maximum IO throughput for asset reads.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages load permits and IO budget.
type Controller struct {
	cfg Config

	loadSem  *semaphore.Weighted
	inFlight atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a new Controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = 1
	}

	c := &Controller{
		cfg:     cfg,
		loadSem: semaphore.NewWeighted(cfg.MaxConcurrentLoads),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireLoad reserves an in-flight load slot, blocking until one frees
// or the context is done.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.loadSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.inFlight.Add(1)
	return nil
}

// TryAcquireLoad reserves a load slot without blocking.
func (c *Controller) TryAcquireLoad() bool {
	if c == nil {
		return true
	}
	if !c.loadSem.TryAcquire(1) {
		return false
	}
	c.inFlight.Add(1)
	return true
}

// ReleaseLoad releases a load slot.
func (c *Controller) ReleaseLoad() {
	if c == nil {
		return
	}
	c.loadSem.Release(1)
	c.inFlight.Add(-1)
}

// InFlight returns the number of loads currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// MaxConcurrentLoads returns the configured permit count.
func (c *Controller) MaxConcurrentLoads() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxConcurrentLoads
}

// AcquireIO waits until the IO limit allows the specified number of
// bytes to be read.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN rejects requests larger than the burst outright; split them.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}
