// Package tracker is a small dependency-tracking runtime.
//
// Computations are functions that re-run when something they read changes or
// when they are invalidated by hand. Re-runs are not executed on the spot while
// other reactive work is in progress: they are queued and drained by a single
// flush, after which the after-flush callbacks run. A Runtime is meant to be
// driven from one goroutine.
package tracker

import (
	"log/slog"
)

type Runtime struct {
	logger  *slog.Logger
	onError ErrorHandler

	// It says what the current computation is, depending on the call stack, if any
	observer *Computation
	// Whether dependencies should register themselves with the current computation or not
	tracking bool
	// Number of computations executing on the stack, tracked or not
	running int
	// Whether we are currently batching, only the outermost batch flushes
	batching bool
	// True while Flush is draining the queues
	flushing bool

	pending    []*Computation
	afterFlush []callback

	nextID int
}

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithErrorHandler receives errors returned by computations after their first
// run. The first run reports its error to the caller of Autorun instead.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.onError == nil {
		rt.onError = func(c *Computation, err error) {
			rt.logger.Error("computation failed", "computation", c.id, "error", err)
		}
	}
	return rt
}

// Current returns the computation whose reads are being tracked.
func (rt *Runtime) Current() *Computation {
	if !rt.tracking {
		return nil
	}
	return rt.observer
}

// Active reports whether a batch of reactive updates is in progress: a
// computation is executing, a flush is draining or a Batch is open. Work that
// must not interfere with that batch should go through AfterFlush.
func (rt *Runtime) Active() bool {
	return rt.running > 0 || rt.flushing || rt.batching
}

// wrap executes fn with observer as the current computation and tracking as
// the tracking mode, then restores the previous ones.
func (rt *Runtime) wrap(observer *Computation, tracking bool, fn func() error) error {
	observerPrev := rt.observer
	trackingPrev := rt.tracking
	defer func() {
		rt.observer = observerPrev
		rt.tracking = trackingPrev
	}()

	rt.observer = observer
	rt.tracking = tracking

	return fn()
}

func (rt *Runtime) requireFlush() {
	if !rt.Active() {
		rt.Flush()
	}
}

// Flush re-runs invalidated computations and then calls after-flush callbacks,
// one at a time, until both queues are empty. It does nothing when called from
// inside reactive work; the enclosing flush picks the work up.
func (rt *Runtime) Flush() {
	if rt.Active() {
		return
	}
	rt.flushing = true
	defer func() {
		rt.flushing = false
	}()

	for len(rt.pending) > 0 || len(rt.afterFlush) > 0 {
		for len(rt.pending) > 0 {
			c := rt.pending[0]
			rt.pending[0] = nil
			rt.pending = rt.pending[1:]

			c.update()
			// invalidated again while running, it goes first
			if c.needsUpdate() {
				rt.pending = append([]*Computation{c}, rt.pending...)
			}
		}

		if len(rt.afterFlush) > 0 {
			fn := rt.afterFlush[0]
			rt.afterFlush[0] = nil
			rt.afterFlush = rt.afterFlush[1:]
			fn()
		}
	}
}

func (rt *Runtime) enqueue(c *Computation) {
	rt.pending = append(rt.pending, c)
}
