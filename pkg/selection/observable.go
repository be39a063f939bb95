package selection

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// observable holds the state and streams shared by every variant.
type observable[T comparable] struct {
	mu    sync.RWMutex
	items []T

	changes  *reactive.Subject[change.Set[T]]
	refresh  *reactive.Subject[struct{}]
	count    *reactive.Signal[int]
	disposed atomic.Bool
}

func newObservable[T comparable]() observable[T] {
	return observable[T]{
		changes: reactive.NewSubject[change.Set[T]](),
		refresh: reactive.NewSubject[struct{}](),
		count:   reactive.NewSignal(0),
	}
}

func (o *observable[T]) Items() []T {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]T, len(o.items))
	copy(out, o.items)
	return out
}

func (o *observable[T]) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.items)
}

func (o *observable[T]) CountChanged() reactive.Stream[int] {
	return o.count.Changes()
}

func (o *observable[T]) Connect(pred func(T) bool) reactive.Stream[change.Set[T]] {
	if pred == nil {
		return o.changes
	}
	filtered := reactive.Map[change.Set[T]](o.changes, func(cs change.Set[T]) change.Set[T] {
		return cs.Filter(pred)
	})
	return reactive.Filter(filtered, func(cs change.Set[T]) bool {
		return len(cs) > 0
	})
}

func (o *observable[T]) OnRefresh() reactive.Stream[struct{}] {
	return o.refresh
}

// commit stores items and publishes cs. The items are stored even when
// cs is empty, so a pure reorder is kept without being published.
func (o *observable[T]) commit(cs change.Set[T], items []T) {
	o.mu.Lock()
	o.items = items
	n := len(items)
	o.mu.Unlock()

	if len(cs) == 0 {
		return
	}
	o.count.Set(n)
	o.changes.Publish(cs)
}

func (o *observable[T]) fireRefresh() {
	if o.disposed.Load() {
		return
	}
	o.refresh.Publish(struct{}{})
}

// dispose marks the observable disposed and completes its streams. It
// reports false if it was already disposed.
func (o *observable[T]) dispose() bool {
	if o.disposed.Swap(true) {
		return false
	}
	o.changes.Complete()
	o.refresh.Complete()
	return true
}
