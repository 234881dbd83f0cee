package tracker

import mapset "github.com/deckarep/golang-set/v2"

// An observer is the part of a computation that a new run throws away
type observer struct {
	// The computation that was running when this one was created, if any, it stops us when it is invalidated
	parent *Computation
	// List of computations created while we ran, stopped the next time we are invalidated
	children mapset.Set[*Computation]
	// List of dependencies read during the current run, we need this because on invalidation they have to forget us
	deps mapset.Set[*Dependency]
	// List of custom cleanup functions to call on the next invalidation
	cleanups []func(c *Computation)
}

func newObserver(parent *Computation) observer {
	return observer{
		parent:   parent,
		children: mapset.NewThreadUnsafeSet[*Computation](),
		deps:     mapset.NewThreadUnsafeSet[*Dependency](),
	}
}

// Disposing, clearing everything the last run left behind
func (c *Computation) dispose() {
	// Stopping child computations, recursively
	for _, child := range c.children.ToSlice() {
		child.Stop()
	}
	c.children.Clear()

	// Clearing dependencies
	for _, d := range c.deps.ToSlice() {
		d.dependents.Remove(c)
	}
	c.deps.Clear()

	// Calling custom cleanup functions, untracked so they can't subscribe whoever is running
	cleanups := c.cleanups
	c.cleanups = nil
	c.rt.NonReactive(func() {
		for _, fn := range cleanups {
			fn(c)
		}
	})
}

// Unlinking a stopped computation from its parent, otherwise it stays reachable for as long as the parent lives
func (c *Computation) unlink() {
	if c.parent == nil {
		return
	}
	c.parent.children.Remove(c)
	c.parent = nil
}
