// Package subs caches subscriptions so that switching back and forth between
// views does not tear data down and fetch it again.
//
// A Manager remembers the most recent requests, bounded by count and by age,
// and keeps a transport subscription open for each of them from a single
// reconciliation computation. Its readiness is true once every cached
// subscription is ready.
package subs

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/delaneyj/subsmanager/clock"
	"github.com/delaneyj/subsmanager/codec"
	"github.com/delaneyj/subsmanager/tracker"
	"github.com/delaneyj/subsmanager/transport"
	"github.com/google/uuid"
)

var ErrStopped = errors.New("manager stopped")

type Option func(*Manager)

func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

type Stats struct {
	Passes  int
	Expired int
	Trimmed int
	Resets  int
}

// generation is one reconciliation computation. Each reset replaces the
// current generation; the previous one keeps its subscriptions until the new
// one has requested all of its own.
type generation struct {
	id   string
	comp *tracker.Computation

	requested   bool
	onRequested []func()
}

// whenRequested runs fn once the generation has finished its first pass.
func (g *generation) whenRequested(fn func()) {
	if g.requested {
		fn()
		return
	}
	g.onRequested = append(g.onRequested, fn)
}

func (g *generation) markRequested() {
	if g.requested {
		return
	}
	g.requested = true
	callbacks := g.onRequested
	g.onRequested = nil
	for _, fn := range callbacks {
		fn()
	}
}

type Manager struct {
	rt        *tracker.Runtime
	transport transport.Transport
	cfg       Config
	clock     clock.Clock
	logger    *slog.Logger

	store    *Store
	ready    bool
	readyDep *tracker.Dependency

	current      *generation
	retiring     []*generation
	resetPending bool
	stopped      bool

	stats Stats
}

// New creates a manager and runs its first reconciliation pass, which makes
// it ready straight away since the cache starts empty.
func New(rt *tracker.Runtime, tr transport.Transport, cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		rt:        rt,
		transport: tr,
		cfg:       cfg,
		clock:     clock.System{},
		logger:    slog.Default(),
		store:     NewStore(),
		readyDep:  rt.NewDependency(),
	}
	for _, opt := range opts {
		opt(m)
	}

	gen, err := m.spawn()
	if err != nil {
		return nil, err
	}
	m.current = gen
	return m, nil
}

func (m *Manager) spawn() (*generation, error) {
	gen := &generation{id: uuid.Must(uuid.NewV7()).String()}

	var err error
	m.rt.NonReactive(func() {
		gen.comp, err = m.rt.Autorun(func(c *tracker.Computation) error {
			return m.reconcile(gen, c)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("start generation %s: %w", gen.id, err)
	}
	m.logger.Debug("generation started", "generation", gen.id)
	return gen, nil
}

// reconcile is one pass: drop expired and overflowing entries, keep a
// subscription open for every survivor and publish readiness when all of them
// are ready. It never publishes false, Subscribe does that for new requests.
func (m *Manager) reconcile(gen *generation, c *tracker.Computation) error {
	m.stats.Passes++
	now := m.clock.Now()

	if m.cfg.ExpireInMinutes != 0 {
		for _, e := range m.store.Expire(m.cfg.ExpireIn(), now) {
			m.stats.Expired++
			m.logger.Debug("entry expired", "key", e.Key.Short(), "last_accessed", e.LastAccessed)
		}
	}
	if m.cfg.CacheLimit != 0 {
		for _, e := range m.store.Trim(m.cfg.CacheLimit) {
			m.stats.Trimmed++
			m.logger.Debug("entry trimmed", "key", e.Key.Short())
		}
	}

	allReady := true
	m.store.Each(func(e *Entry) bool {
		h, err := m.transport.Subscribe(c, e.Request)
		if err != nil {
			m.logger.Warn("subscribe failed", "generation", gen.id, "key", e.Key.Short(), "error", err)
			e.Ready = false
		} else {
			e.Ready = h.Ready()
		}
		allReady = allReady && e.Ready
		return true
	})

	gen.markRequested()

	if allReady {
		m.ready = true
		m.readyDep.Changed()
	}
	return nil
}

// Subscribe caches the request and returns a handle whose readiness is the
// manager's aggregate readiness. A new key makes the manager unready, telling
// dependents if it was ready, and schedules a reconciliation pass: right away when no reactive work is in
// progress, otherwise once the flush settles.
func (m *Manager) Subscribe(name string, args ...any) (*Handle, error) {
	if m.stopped {
		return nil, ErrStopped
	}

	req, err := codec.NewRequest(name, args...)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	_, created := m.store.Record(req, m.clock.Now())
	if created {
		wasReady := m.ready
		m.ready = false
		invalidate := func() {
			if m.current != nil {
				m.current.comp.Invalidate()
			}
		}
		if m.rt.Active() {
			if wasReady {
				m.readyDep.Changed()
			}
			m.rt.AfterFlush(invalidate)
		} else {
			m.rt.Batch(func() {
				invalidate()
				if wasReady {
					m.readyDep.Changed()
				}
			})
		}
	}

	return &Handle{m: m, req: req}, nil
}

// Ready is the aggregate readiness. It is reactive.
func (m *Manager) Ready() bool {
	m.readyDep.Depend()
	return m.ready
}

// Reset replaces the reconciliation computation with a fresh one. The old
// computation is stopped only after the new one has requested every cached
// entry and the flush has settled, so already ready subscriptions stay open
// throughout. Resets requested during reactive work run once it settles, and
// several of them collapse into one.
func (m *Manager) Reset() error {
	if m.stopped {
		return ErrStopped
	}
	if !m.rt.Active() {
		return m.reset()
	}
	if m.resetPending {
		return nil
	}
	m.resetPending = true
	m.rt.AfterFlush(func() {
		m.resetPending = false
		if m.stopped {
			return
		}
		if err := m.reset(); err != nil {
			m.logger.Error("deferred reset failed", "error", err)
		}
	})
	return nil
}

func (m *Manager) reset() error {
	old := m.current
	next, err := m.spawn()
	if err != nil {
		return err
	}
	m.current = next
	m.retiring = append(m.retiring, old)
	m.stats.Resets++

	next.whenRequested(func() {
		m.rt.AfterFlush(func() {
			m.retire(old)
		})
	})
	return nil
}

func (m *Manager) retire(gen *generation) {
	for i, g := range m.retiring {
		if g == gen {
			m.retiring = append(m.retiring[:i], m.retiring[i+1:]...)
			break
		}
	}
	gen.comp.Stop()
	m.logger.Debug("generation retired", "generation", gen.id)
}

// Stop tears the manager down and releases every subscription. It is final.
func (m *Manager) Stop() {
	if m.stopped {
		return
	}
	m.stopped = true

	m.rt.Batch(func() {
		for _, g := range m.retiring {
			g.comp.Stop()
		}
		m.retiring = nil
		if m.current != nil {
			m.current.comp.Stop()
			m.current = nil
		}
		m.ready = false
		m.readyDep.Changed()
	})
}

func (m *Manager) Len() int {
	return m.store.Len()
}

// Keys in recency order, oldest first.
func (m *Manager) Keys() []codec.Key {
	return m.store.Keys()
}

type EntrySnapshot struct {
	Key          codec.Key
	Name         string
	Args         []any
	LastAccessed time.Time
	Ready        bool
}

// Entries copies the cache, oldest first.
func (m *Manager) Entries() []EntrySnapshot {
	out := make([]EntrySnapshot, 0, m.store.Len())
	m.store.Each(func(e *Entry) bool {
		out = append(out, EntrySnapshot{
			Key:          e.Key,
			Name:         e.Request.Name(),
			Args:         e.Request.Args(),
			LastAccessed: e.LastAccessed,
			Ready:        e.Ready,
		})
		return true
	})
	return out
}

func (m *Manager) Stats() Stats {
	return m.stats
}

// Generation is the id of the current reconciliation computation.
func (m *Manager) Generation() string {
	if m.current == nil {
		return ""
	}
	return m.current.id
}

// Handle is what Subscribe returns. Its readiness is the manager's.
type Handle struct {
	m   *Manager
	req codec.Request
}

func (h *Handle) Ready() bool {
	return h.m.Ready()
}

func (h *Handle) Request() codec.Request {
	return h.req
}

// Cached reports whether the request is still in the cache.
func (h *Handle) Cached() bool {
	_, ok := h.m.store.Get(h.req.Key())
	return ok
}
