package transport

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/delaneyj/subsmanager/codec"
	"github.com/delaneyj/subsmanager/tracker"
)

// Loopback stands in for a remote server. Server side subscriptions are shared
// by key and reference counted across owners, so a second owner asking for an
// already ready subscription sees it ready at once.
type Loopback struct {
	rt        *tracker.Runtime
	logger    *slog.Logger
	autoReady bool

	servers map[codec.Key]*serverSub
	owned   map[*tracker.Computation]map[codec.Key]*handle

	seq       int64
	events    []Event
	listeners []func(Event)

	closed bool
}

type serverSub struct {
	req   codec.Request
	ready bool
	refs  int
	dep   *tracker.Dependency
}

type LoopbackOption func(*Loopback)

// WithAutoReady makes new subscriptions ready as soon as they are opened.
func WithAutoReady() LoopbackOption {
	return func(l *Loopback) {
		l.autoReady = true
	}
}

func WithLogger(logger *slog.Logger) LoopbackOption {
	return func(l *Loopback) {
		l.logger = logger
	}
}

func NewLoopback(rt *tracker.Runtime, opts ...LoopbackOption) *Loopback {
	l := &Loopback{
		rt:      rt,
		logger:  slog.Default(),
		servers: map[codec.Key]*serverSub{},
		owned:   map[*tracker.Computation]map[codec.Key]*handle{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loopback) Subscribe(owner *tracker.Computation, req codec.Request) (Handle, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if req.IsZero() {
		return nil, fmt.Errorf("subscribe: %w", codec.ErrEmptyName)
	}
	key := req.Key()

	if owner != nil {
		if h, ok := l.owned[owner][key]; ok && !h.stopped {
			h.inactive = false
			h.watch()
			return h, nil
		}
	}

	srv, ok := l.servers[key]
	if !ok {
		srv = &serverSub{
			req: req,
			dep: l.rt.NewDependency(),
		}
		l.servers[key] = srv
		l.emit(EventSub, key)
		if l.autoReady {
			srv.ready = true
			l.emit(EventReady, key)
		}
	}
	srv.refs++

	h := &handle{l: l, srv: srv, owner: owner}
	if owner != nil {
		byKey, ok := l.owned[owner]
		if !ok {
			byKey = map[codec.Key]*handle{}
			l.owned[owner] = byKey
		}
		byKey[key] = h
		h.watch()
	}
	return h, nil
}

// MarkReady simulates the server finishing the initial data set for key.
func (l *Loopback) MarkReady(key codec.Key) error {
	srv, ok := l.servers[key]
	if !ok {
		return fmt.Errorf("mark ready %s: %w", key, ErrNotSubscribed)
	}
	if srv.ready {
		return nil
	}
	srv.ready = true
	l.emit(EventReady, key)
	srv.dep.Changed()
	return nil
}

// Active returns the keys with at least one live handle, sorted.
func (l *Loopback) Active() []codec.Key {
	keys := make([]codec.Key, 0, len(l.servers))
	for k := range l.servers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (l *Loopback) IsSubscribed(key codec.Key) bool {
	_, ok := l.servers[key]
	return ok
}

// Refs is the number of live handles sharing key.
func (l *Loopback) Refs(key codec.Key) int {
	if srv, ok := l.servers[key]; ok {
		return srv.refs
	}
	return 0
}

func (l *Loopback) Events() []Event {
	return slices.Clone(l.events)
}

// OnEvent registers fn to be called with every event as it is recorded.
func (l *Loopback) OnEvent(fn func(Event)) {
	l.listeners = append(l.listeners, fn)
}

// Close stops every live handle and rejects further subscriptions.
func (l *Loopback) Close() {
	if l.closed {
		return
	}
	l.closed = true

	l.rt.Batch(func() {
		for _, byKey := range l.owned {
			for _, h := range byKey {
				h.Stop()
			}
		}
	})
}

func (l *Loopback) emit(kind EventKind, key codec.Key) {
	l.seq++
	ev := Event{Seq: l.seq, Kind: kind, Key: key}
	l.events = append(l.events, ev)
	l.logger.Debug("transport event", "seq", ev.Seq, "kind", kind, "key", key.Short())
	for _, fn := range l.listeners {
		fn(ev)
	}
}

type handle struct {
	l     *Loopback
	srv   *serverSub
	owner *tracker.Computation

	inactive bool
	watched  bool
	stopped  bool
}

func (h *handle) watch() {
	if h.watched {
		return
	}
	h.watched = true

	h.owner.OnInvalidate(func(*tracker.Computation) {
		h.watched = false
		h.inactive = true
		h.l.rt.AfterFlush(func() {
			if h.inactive {
				h.Stop()
			}
		})
	})
}

func (h *handle) Ready() bool {
	if h.stopped {
		return false
	}
	h.srv.dep.Depend()
	return h.srv.ready
}

func (h *handle) Request() codec.Request {
	return h.srv.req
}

func (h *handle) Stop() {
	if h.stopped {
		return
	}
	h.stopped = true

	l := h.l
	key := h.srv.req.Key()
	if h.owner != nil {
		if byKey, ok := l.owned[h.owner]; ok && byKey[key] == h {
			delete(byKey, key)
			if len(byKey) == 0 {
				delete(l.owned, h.owner)
			}
		}
	}

	h.srv.refs--
	if h.srv.refs > 0 {
		return
	}
	delete(l.servers, key)
	l.emit(EventUnsub, key)
	h.srv.dep.Changed()
}
