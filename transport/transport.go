// Package transport defines what the subscription manager needs from a
// pub/sub connection, plus an in-memory implementation.
package transport

import (
	"errors"

	"github.com/delaneyj/subsmanager/codec"
	"github.com/delaneyj/subsmanager/tracker"
)

var (
	ErrClosed        = errors.New("transport closed")
	ErrNotSubscribed = errors.New("not subscribed")
)

// Handle is one live subscription.
type Handle interface {
	// Ready reports whether the initial data set has arrived. It is reactive:
	// a computation calling it re-runs when readiness changes.
	Ready() bool
	Stop()
	Request() codec.Request
}

// Transport opens subscriptions on behalf of a computation.
//
// A handle requested while owner runs belongs to owner. When owner is
// invalidated the handle becomes inactive, and unless owner's next run asks
// for an equivalent request again the handle is stopped once the flush
// settles. Asking again from the same owner returns the same handle. A nil
// owner yields an unmanaged handle that only stops when told to.
type Transport interface {
	Subscribe(owner *tracker.Computation, req codec.Request) (Handle, error)
}

type EventKind string

const (
	EventSub   EventKind = "sub"
	EventUnsub EventKind = "unsub"
	EventReady EventKind = "ready"
)

type Event struct {
	Seq  int64
	Kind EventKind
	Key  codec.Key
}
