package diff

import "github.com/vango-dev/selsync/pkg/change"

// TrackedList is an ordered, duplicate-free list that is only mutated
// through diffing or single-item edits, each of which reports the changes
// it made.
//
// TrackedList is not safe for concurrent use.
type TrackedList[T comparable] struct {
	items []T
}

// New creates a TrackedList seeded with initial, deduplicated.
func New[T comparable](initial ...T) *TrackedList[T] {
	return &TrackedList[T]{items: Dedupe(initial)}
}

// Items returns a copy of the tracked items.
func (l *TrackedList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of tracked items.
func (l *TrackedList[T]) Len() int {
	return len(l.items)
}

// IndexOf returns the position of item, or -1.
func (l *TrackedList[T]) IndexOf(item T) int {
	for i, v := range l.items {
		if v == item {
			return i
		}
	}
	return -1
}

// Contains reports whether item is tracked.
func (l *TrackedList[T]) Contains(item T) bool {
	return l.IndexOf(item) >= 0
}

// Last returns the last tracked item.
func (l *TrackedList[T]) Last() (T, bool) {
	if len(l.items) == 0 {
		var zero T
		return zero, false
	}
	return l.items[len(l.items)-1], true
}

// Edit makes the list equal to target and returns the changes.
func (l *TrackedList[T]) Edit(target []T) change.Set[T] {
	return DiffAndApply(&l.items, target)
}

// Add appends item unless it is already tracked.
func (l *TrackedList[T]) Add(item T) (change.Set[T], bool) {
	if l.Contains(item) {
		return nil, false
	}
	l.items = append(l.items, item)
	return change.Set[T]{change.NewAdd(item, len(l.items)-1)}, true
}

// Remove deletes item if it is tracked.
func (l *TrackedList[T]) Remove(item T) (change.Set[T], bool) {
	i := l.IndexOf(item)
	if i < 0 {
		return nil, false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return change.Set[T]{change.NewRemove(item, i)}, true
}
