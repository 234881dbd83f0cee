package tracker

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// A Dependency is a manual notification point: computations that called Depend
// are invalidated by the next Changed.
type Dependency struct {
	rt *Runtime

	// List of computations to invalidate on change
	// It's a set because a computation may read the same dependency many times per run and must still re-run once
	dependents mapset.Set[*Computation]
}

func (rt *Runtime) NewDependency() *Dependency {
	return &Dependency{
		rt:         rt,
		dependents: mapset.NewThreadUnsafeSet[*Computation](),
	}
}

// Depend registers the current computation, if we are tracking, as a
// dependent. It reports whether the computation was newly registered.
func (d *Dependency) Depend() bool {
	if !d.rt.tracking || d.rt.observer == nil {
		return false
	}
	c := d.rt.observer
	if !d.dependents.Add(c) {
		return false
	}
	c.deps.Add(d)
	return true
}

// Changed invalidates every dependent. Dependents re-run in creation order.
func (d *Dependency) Changed() {
	dependents := d.dependents.ToSlice()
	if len(dependents) == 0 {
		return
	}
	slices.SortFunc(dependents, func(a, b *Computation) int {
		return a.id - b.id
	})

	d.rt.Batch(func() {
		for _, c := range dependents {
			c.Invalidate()
		}
	})
}

func (d *Dependency) HasDependents() bool {
	return d.dependents.Cardinality() > 0
}
