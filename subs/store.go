package subs

import (
	"container/list"
	"time"

	"github.com/delaneyj/subsmanager/codec"
)

// Entry is one cached request.
type Entry struct {
	Key          codec.Key
	Request      codec.Request
	LastAccessed time.Time
	// last readiness reported by the transport for this entry alone
	Ready bool
}

// Store is the cache itself: a map for lookup and a list for recency. Front is
// the least recently requested entry, back the most recent. Every indexed
// entry has exactly one list element and vice versa.
type Store struct {
	index map[codec.Key]*list.Element
	order *list.List
}

func NewStore() *Store {
	return &Store{
		index: map[codec.Key]*list.Element{},
		order: list.New(),
	}
}

// Record adds req, or refreshes it if already cached, making it the most
// recent entry. created reports whether the key was new.
func (s *Store) Record(req codec.Request, now time.Time) (e *Entry, created bool) {
	if el, ok := s.index[req.Key()]; ok {
		e = el.Value.(*Entry)
		e.LastAccessed = now
		s.order.MoveToBack(el)
		return e, false
	}

	e = &Entry{
		Key:          req.Key(),
		Request:      req,
		LastAccessed: now,
	}
	s.index[e.Key] = s.order.PushBack(e)
	return e, true
}

// Expire drops entries last requested more than ttl before now, oldest first.
// A non-positive ttl expires nothing.
func (s *Store) Expire(ttl time.Duration, now time.Time) []*Entry {
	if ttl <= 0 {
		return nil
	}
	cutoff := now.Add(-ttl)

	var removed []*Entry
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*Entry)
		if e.LastAccessed.Before(cutoff) {
			s.remove(el)
			removed = append(removed, e)
		}
		el = next
	}
	return removed
}

// Trim drops the oldest entries until at most limit remain. A non-positive
// limit trims nothing.
func (s *Store) Trim(limit int) []*Entry {
	if limit <= 0 {
		return nil
	}

	var removed []*Entry
	for s.order.Len() > limit {
		el := s.order.Front()
		s.remove(el)
		removed = append(removed, el.Value.(*Entry))
	}
	return removed
}

func (s *Store) Get(key codec.Key) (*Entry, bool) {
	el, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*Entry), true
}

func (s *Store) Len() int {
	return s.order.Len()
}

// Keys in recency order, oldest first.
func (s *Store) Keys() []codec.Key {
	keys := make([]codec.Key, 0, s.order.Len())
	s.Each(func(e *Entry) bool {
		keys = append(keys, e.Key)
		return true
	})
	return keys
}

// Each visits entries oldest first until fn returns false. fn must not modify
// the store.
func (s *Store) Each(fn func(e *Entry) bool) {
	for el := s.order.Front(); el != nil; el = el.Next() {
		if !fn(el.Value.(*Entry)) {
			return
		}
	}
}

func (s *Store) remove(el *list.Element) {
	e := el.Value.(*Entry)
	delete(s.index, e.Key)
	s.order.Remove(el)
}
