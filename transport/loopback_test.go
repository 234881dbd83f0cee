package transport_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/delaneyj/subsmanager/codec"
	"github.com/delaneyj/subsmanager/tracker"
	"github.com/delaneyj/subsmanager/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...transport.LoopbackOption) (*tracker.Runtime, *transport.Loopback) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := tracker.New(
		tracker.WithLogger(logger),
		tracker.WithErrorHandler(func(c *tracker.Computation, err error) {
			assert.FailNow(t, err.Error())
		}),
	)
	opts = append(opts, transport.WithLogger(logger))
	return rt, transport.NewLoopback(rt, opts...)
}

func kinds(events []transport.Event) []transport.EventKind {
	out := make([]transport.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestUnmanagedHandle(t *testing.T) {
	_, lb := setup(t)
	req := codec.MustRequest("posts", 1)

	h, err := lb.Subscribe(nil, req)
	require.NoError(t, err)
	assert.False(t, h.Ready())
	assert.Equal(t, req.Key(), h.Request().Key())
	assert.True(t, lb.IsSubscribed(req.Key()))

	require.NoError(t, lb.MarkReady(req.Key()))
	assert.True(t, h.Ready())

	h.Stop()
	h.Stop()
	assert.False(t, h.Ready())
	assert.False(t, lb.IsSubscribed(req.Key()))
	assert.Equal(t,
		[]transport.EventKind{transport.EventSub, transport.EventReady, transport.EventUnsub},
		kinds(lb.Events()),
	)
}

func TestReadyIsReactive(t *testing.T) {
	rt, lb := setup(t)
	req := codec.MustRequest("posts")

	var seen []bool
	_, err := rt.Autorun(func(c *tracker.Computation) error {
		h, err := lb.Subscribe(c, req)
		if err != nil {
			return err
		}
		seen = append(seen, h.Ready())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, lb.MarkReady(req.Key()))
	require.NoError(t, lb.MarkReady(req.Key()))
	assert.Equal(t, []bool{false, true}, seen)
	assert.Equal(t, 1, lb.Refs(req.Key()))
}

func TestStoppedWhenNoLongerRequested(t *testing.T) {
	rt, lb := setup(t, transport.WithAutoReady())
	a := codec.MustRequest("a")
	b := codec.MustRequest("b")

	want := []codec.Request{a, b}
	dep := rt.NewDependency()
	_, err := rt.Autorun(func(c *tracker.Computation) error {
		dep.Depend()
		for _, req := range want {
			if _, err := lb.Subscribe(c, req); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []codec.Key{a.Key(), b.Key()}, lb.Active())

	want = []codec.Request{b}
	dep.Changed()
	assert.Equal(t, []codec.Key{b.Key()}, lb.Active())

	events := lb.Events()
	require.Len(t, events, 5)
	assert.Equal(t, transport.EventUnsub, events[4].Kind)
	assert.Equal(t, a.Key(), events[4].Key)
}

func TestRerequestReusesHandle(t *testing.T) {
	rt, lb := setup(t)
	req := codec.MustRequest("a")

	var handles []transport.Handle
	c, err := rt.Autorun(func(c *tracker.Computation) error {
		h, err := lb.Subscribe(c, req)
		if err != nil {
			return err
		}
		handles = append(handles, h)
		return nil
	})
	require.NoError(t, err)

	c.Invalidate()
	require.Len(t, handles, 2)
	assert.Same(t, handles[0], handles[1])
	assert.Equal(t, 1, lb.Refs(req.Key()))
	assert.Len(t, lb.Events(), 1)
}

func TestOwnerStopReleasesHandles(t *testing.T) {
	rt, lb := setup(t)
	req := codec.MustRequest("a")

	c, err := rt.Autorun(func(c *tracker.Computation) error {
		_, err := lb.Subscribe(c, req)
		return err
	})
	require.NoError(t, err)

	c.Stop()
	assert.False(t, lb.IsSubscribed(req.Key()))
}

func TestSharedAcrossOwners(t *testing.T) {
	rt, lb := setup(t)
	req := codec.MustRequest("a")

	first, err := rt.Autorun(func(c *tracker.Computation) error {
		_, err := lb.Subscribe(c, req)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, lb.MarkReady(req.Key()))

	var ready bool
	_, err = rt.Autorun(func(c *tracker.Computation) error {
		h, err := lb.Subscribe(c, req)
		if err != nil {
			return err
		}
		ready = h.Ready()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, 2, lb.Refs(req.Key()))

	first.Stop()
	assert.Equal(t, 1, lb.Refs(req.Key()))
	assert.True(t, ready)

	for _, ev := range lb.Events() {
		assert.NotEqual(t, transport.EventUnsub, ev.Kind)
	}
}

func TestMarkReadyUnknown(t *testing.T) {
	_, lb := setup(t)
	err := lb.MarkReady(codec.MustRequest("nope").Key())
	assert.ErrorIs(t, err, transport.ErrNotSubscribed)
}

func TestClose(t *testing.T) {
	rt, lb := setup(t)
	req := codec.MustRequest("a")

	var got []transport.Event
	lb.OnEvent(func(ev transport.Event) {
		got = append(got, ev)
	})

	_, err := rt.Autorun(func(c *tracker.Computation) error {
		_, err := lb.Subscribe(c, req)
		return err
	})
	require.NoError(t, err)

	lb.Close()
	assert.Empty(t, lb.Active())
	assert.Equal(t, lb.Events(), got)

	_, err = lb.Subscribe(nil, req)
	assert.ErrorIs(t, err, transport.ErrClosed)
}
