package reactive

import (
	"sync"
	"sync/atomic"
)

// Stream is anything that can be subscribed to.
type Stream[T any] interface {
	Subscribe(fn func(T)) Subscription
}

// StreamFunc adapts a function to the Stream interface.
type StreamFunc[T any] func(fn func(T)) Subscription

// Subscribe calls f.
func (f StreamFunc[T]) Subscribe(fn func(T)) Subscription {
	return f(fn)
}

// subscriber is a single registration on a Subject.
type subscriber[T any] struct {
	id       uint64
	fn       func(T)
	disposed atomic.Bool
	owner    *Subject[T]
}

func (s *subscriber[T]) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.owner.remove(s.id)
}

// Subject is a synchronous multicast stream. It keeps no history: a new
// subscriber only sees values published after it subscribed.
type Subject[T any] struct {
	// subs are kept in subscription order.
	subs []*subscriber[T]

	// subMu protects the subs slice.
	subMu sync.RWMutex

	completed atomic.Bool
}

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers fn. Subscribing to a completed Subject, or with a
// nil fn, returns a Subscription that does nothing.
func (s *Subject[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil || s.completed.Load() {
		return Empty()
	}

	sub := &subscriber[T]{id: nextID(), fn: fn, owner: s}

	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return sub
}

// remove deletes a subscriber, preserving the order of the others.
func (s *Subject[T]) remove(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, existing := range s.subs {
		if existing.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every live subscriber in subscription order.
// Uses copy-before-notify so callbacks may subscribe or dispose freely.
func (s *Subject[T]) Publish(v T) {
	if s.completed.Load() {
		return
	}

	s.subMu.RLock()
	subs := make([]*subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, sub := range subs {
		if sub.disposed.Load() {
			continue
		}
		sub.fn(v)
	}
}

// Len returns the number of live subscribers.
func (s *Subject[T]) Len() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// Complete disposes every subscriber and rejects future subscriptions.
func (s *Subject[T]) Complete() {
	if s.completed.Swap(true) {
		return
	}

	s.subMu.Lock()
	subs := s.subs
	s.subs = nil
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.disposed.Store(true)
	}
}

// IsCompleted reports whether Complete has been called.
func (s *Subject[T]) IsCompleted() bool {
	return s.completed.Load()
}
