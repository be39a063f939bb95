package selection

import (
	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// Selection is an observable, incrementally updated selection.
//
// Streams never emit an empty change set. Connect is a live tap: a new
// subscriber only sees future changes and must read Items for the current
// state.
type Selection[T comparable] interface {
	// Items returns a snapshot of the selected items in selection order.
	Items() []T

	// Count returns the number of selected items.
	Count() int

	// CountChanged emits the new count whenever it changes.
	CountChanged() reactive.Stream[int]

	// Connect returns the change stream restricted to items matching pred.
	// A nil pred matches every item. Indices in filtered sets are positions
	// in the whole selection, not in the filtered view; rebuild a filtered
	// view by item rather than by index.
	Connect(pred func(T) bool) reactive.Stream[change.Set[T]]

	// OnRefresh emits when the selection asks its observers to re-evaluate
	// the presentation of its items.
	OnRefresh() reactive.Stream[struct{}]

	// Update makes the selection equal to items, using the operations the
	// backing state supports. Duplicates collapse and updating with the
	// current items has no observable effect.
	Update(items ...T) error

	// Refresh requests a refresh from observers. Variants without an
	// externally triggered refresh ignore it.
	Refresh()

	// Dispose releases the selection. Items keeps returning the last state.
	Dispose()
}

// LastOrZero returns the last item, or the zero value for no items.
func LastOrZero[T any](items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[len(items)-1]
}

// Primary returns the primary item of sel: the most recently selected one.
func Primary[T comparable](sel Selection[T]) T {
	return LastOrZero(sel.Items())
}

// BindPrimary pushes the primary item of sel to set, once immediately and
// then whenever it changes.
func BindPrimary[T comparable](sel Selection[T], set func(T)) reactive.Subscription {
	primary := reactive.StreamFunc[T](func(next func(T)) reactive.Subscription {
		sub := reactive.Map(sel.Connect(nil), func(change.Set[T]) T {
			return Primary(sel)
		}).Subscribe(next)
		next(Primary(sel))
		return sub
	})
	return reactive.DistinctUntilChanged[T](primary).Subscribe(set)
}
