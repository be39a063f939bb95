package selection

import (
	"sync"

	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// NewSingle returns a selection over a slot holding at most one item.
// observe must emit the slot's value, the zero value meaning empty. Update
// calls set once with the last requested item, or with the zero value when
// no items are requested.
func NewSingle[T comparable](observe reactive.Stream[T], set func(T)) (*Derived[T], error) {
	if observe == nil || set == nil {
		return nil, ErrInvalidCapability
	}
	return NewDerived(ToZeroOne(observe), func(items []T) error {
		set(LastOrZero(items))
		return nil
	}), nil
}

// NewProperty returns a single-item selection bound to sig.
func NewProperty[T comparable](sig *reactive.Signal[T]) (*Derived[T], error) {
	if sig == nil {
		return nil, ErrInvalidCapability
	}
	return NewSingle(sig.Observe(), sig.Set)
}

// ToZeroOne turns a stream of values into change sets over a list of at
// most one item. The zero value is the empty list and repeated values emit
// nothing.
func ToZeroOne[T comparable](values reactive.Stream[T]) reactive.Stream[change.Set[T]] {
	return reactive.StreamFunc[change.Set[T]](func(next func(change.Set[T])) reactive.Subscription {
		var (
			mu   sync.Mutex
			prev T
		)
		return values.Subscribe(func(v T) {
			var zero T

			mu.Lock()
			if v == prev {
				mu.Unlock()
				return
			}
			var cs change.Set[T]
			if prev != zero {
				cs = append(cs, change.NewRemove(prev, 0))
			}
			if v != zero {
				cs = append(cs, change.NewAdd(v, 0))
			}
			prev = v
			mu.Unlock()

			next(cs)
		})
	})
}
