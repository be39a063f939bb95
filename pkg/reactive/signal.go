package reactive

import (
	"reflect"
	"sync"
)

// Signal is a reactive value container. It is the value-property shape
// used to treat a single field as a one-item selection: Observe to read,
// Set to write.
type Signal[T any] struct {
	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to determine if the value changed.
	// If nil, uses default equality checking.
	equal func(T, T) bool

	changes *Subject[T]
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		value:   initial,
		changes: NewSubject[T](),
	}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value and notifies subscribers if the value changed.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.changes.Publish(value)
	}
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.changes.Publish(newValue)
	}
}

// WithEquals returns the signal configured with a custom equality function.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// Observe returns a stream that emits the current value to each new
// subscriber and then every subsequent change.
func (s *Signal[T]) Observe() Stream[T] {
	return StreamFunc[T](func(fn func(T)) Subscription {
		if fn == nil {
			return Empty()
		}
		sub := s.changes.Subscribe(fn)
		fn(s.Get())
		return sub
	})
}

// Changes returns a stream of changes only, without the initial value.
func (s *Signal[T]) Changes() Stream[T] {
	return s.changes
}

// equals checks if two values are equal using the configured equality function.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for comparable dynamic types, so pointers compare by
// identity, and reflect.DeepEqual for slices, maps and funcs.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if reflect.TypeOf(av).Comparable() && reflect.TypeOf(bv).Comparable() {
		return av == bv
	}
	return reflect.DeepEqual(a, b)
}
