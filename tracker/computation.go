package tracker

import (
	"fmt"
)

// A Computation re-executes its function every time it is invalidated, until
// it is stopped. Stopping is final.
type Computation struct {
	observer

	rt *Runtime
	id int
	// Function to re-execute
	fn func(c *Computation) error

	firstRun    bool
	invalidated bool
	stopped     bool
	updating    bool

	onStop []callback
}

func (c *Computation) ID() int {
	return c.id
}

// FirstRun is true while the function executes for the first time.
func (c *Computation) FirstRun() bool {
	return c.firstRun
}

func (c *Computation) Invalidated() bool {
	return c.invalidated
}

func (c *Computation) Stopped() bool {
	return c.stopped
}

// OnInvalidate registers fn to be called the next time the computation is
// invalidated. If it already is, fn is called right away.
func (c *Computation) OnInvalidate(fn func(c *Computation)) {
	if c.invalidated {
		c.rt.NonReactive(func() {
			fn(c)
		})
		return
	}
	c.cleanups = append(c.cleanups, fn)
}

// OnStop registers fn to be called when the computation stops.
func (c *Computation) OnStop(fn func()) {
	if c.stopped {
		c.rt.NonReactive(fn)
		return
	}
	c.onStop = append(c.onStop, fn)
}

// Invalidate schedules a re-run. Several invalidations before the next flush
// collapse into one re-run.
func (c *Computation) Invalidate() {
	if c.invalidated {
		return
	}
	c.invalidated = true

	c.rt.Batch(func() {
		// A computation invalidated while it runs is queued again by the flush itself
		if !c.updating && !c.stopped {
			c.rt.enqueue(c)
		}
		c.dispose()
	})
}

// Stop invalidates the computation for good and runs its stop callbacks.
func (c *Computation) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true

	c.rt.Batch(func() {
		c.Invalidate()
		c.unlink()

		callbacks := c.onStop
		c.onStop = nil
		c.rt.NonReactive(func() {
			for _, fn := range callbacks {
				fn()
			}
		})
	})
}

func (c *Computation) needsUpdate() bool {
	return c.invalidated && !c.stopped
}

// Execute the computation, with itself as the current computation and tracking on
func (c *Computation) run() error {
	c.invalidated = false

	c.rt.running++
	defer func() {
		c.rt.running--
		c.firstRun = false
	}()

	return c.rt.wrap(c, true, func() error {
		return c.fn(c)
	})
}

// Same as run, but errors go to the runtime's handler
func (c *Computation) update() {
	c.updating = true
	defer func() {
		c.updating = false
	}()

	if !c.needsUpdate() {
		return
	}
	if err := c.run(); err != nil {
		c.rt.onError(c, fmt.Errorf("computation %d: %w", c.id, err))
	}
}
