package tracker

import "fmt"

// Autorun creates a computation and runs fn once, immediately. When called from
// inside another computation the new one is stopped as soon as its parent is
// invalidated.
func (rt *Runtime) Autorun(fn func(c *Computation) error) (*Computation, error) {
	rt.nextID++
	parent := rt.Current()
	c := &Computation{
		observer: newObserver(parent),
		rt:       rt,
		id:       rt.nextID,
		fn:       fn,
		firstRun: true,
	}

	// Linking with the parent, so that it can stop us
	if parent != nil {
		parent.children.Add(c)
	}

	if err := c.run(); err != nil {
		c.Stop()
		return nil, fmt.Errorf("first run of computation %d: %w", c.id, err)
	}
	rt.requireFlush()

	return c, nil
}

// Batch runs fn and flushes once it returns, so that every invalidation made
// inside fn results in at most one re-run per computation.
func (rt *Runtime) Batch(fn func()) {
	// Already batching? The outermost batch flushes then
	if rt.batching {
		fn()
		return
	}

	rt.batching = true
	defer func() {
		rt.batching = false
		rt.requireFlush()
	}()

	fn()
}

// AfterFlush schedules fn to run once pending re-runs have settled. Outside of
// any reactive work that happens before AfterFlush returns.
func (rt *Runtime) AfterFlush(fn func()) {
	rt.afterFlush = append(rt.afterFlush, fn)
	rt.requireFlush()
}

// NonReactive runs fn without tracking its reads. The current computation
// stays the same, only tracking is turned off.
func (rt *Runtime) NonReactive(fn func()) {
	_ = rt.wrap(rt.observer, false, func() error {
		fn()
		return nil
	})
}
