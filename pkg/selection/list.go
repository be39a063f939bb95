package selection

import "github.com/vango-dev/selsync/pkg/diff"

// List is a freeform selection that holds its items itself.
type List[T comparable] struct {
	observable[T]
	tracked *diff.TrackedList[T]
}

var _ Selection[int] = (*List[int])(nil)

// NewList creates a List seeded with initial. Duplicates collapse.
func NewList[T comparable](initial ...T) *List[T] {
	l := &List[T]{
		observable: newObservable[T](),
		tracked:    diff.New(initial...),
	}
	l.items = l.tracked.Items()
	l.count.Set(len(l.items))
	return l
}

// Update diffs items against the current state and publishes the result.
func (l *List[T]) Update(items ...T) error {
	if l.disposed.Load() {
		return ErrDisposed
	}
	l.commit(l.tracked.Edit(items), l.tracked.Items())
	return nil
}

// Add appends item unless it is already selected.
func (l *List[T]) Add(item T) {
	if l.disposed.Load() {
		return
	}
	if cs, ok := l.tracked.Add(item); ok {
		l.commit(cs, l.tracked.Items())
	}
}

// Remove deselects item if it is selected.
func (l *List[T]) Remove(item T) {
	if l.disposed.Load() {
		return
	}
	if cs, ok := l.tracked.Remove(item); ok {
		l.commit(cs, l.tracked.Items())
	}
}

// Contains reports whether item is selected.
func (l *List[T]) Contains(item T) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, v := range l.items {
		if v == item {
			return true
		}
	}
	return false
}

// Refresh emits on OnRefresh without touching membership.
func (l *List[T]) Refresh() {
	l.fireRefresh()
}

// Dispose completes the selection's streams.
func (l *List[T]) Dispose() {
	l.dispose()
}

// Edit applies fn to a copy of the items and updates the list with the
// result.
func (l *List[T]) Edit(fn func([]T) []T) error {
	return l.Update(fn(l.Items())...)
}
