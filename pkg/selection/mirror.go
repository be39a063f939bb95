package selection

import (
	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/diff"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// Source is an external holder of a selection, such as a host control,
// that reports its state on demand.
type Source[T comparable] interface {
	// Current returns the source's selected items in order.
	Current() []T

	// Apply asks the source to select items.
	Apply(items []T) error

	// Changed fires, without payload, after any change of the selection.
	Changed() reactive.Stream[struct{}]

	// Activated fires when the source gains focus and its presentation
	// should be reasserted. Sources without focus return reactive.Never.
	Activated() reactive.Stream[struct{}]
}

// A Source whose Changed or Activated returns nil is rejected by NewMirror.
// Implementations return nil from both on a nil receiver so that a typed
// nil source is reported as ErrInvalidCapability.

// NewMirror returns a selection following src. Each Changed signal is
// turned into a change set by diffing Current against the mirrored items;
// each Activated signal publishes a Refresh for every item Current reports.
// Updates are forwarded to Apply.
func NewMirror[T comparable](src Source[T]) (*Derived[T], error) {
	if src == nil {
		return nil, ErrInvalidCapability
	}
	changed, activated := src.Changed(), src.Activated()
	if changed == nil || activated == nil {
		return nil, ErrInvalidCapability
	}

	refreshes := reactive.Map(activated, func(struct{}) change.Set[T] {
		return change.RefreshAll(src.Current())
	})
	d := NewDerived(reactive.Merge(ScanDiff(changed, src.Current), refreshes), func(items []T) error {
		return src.Apply(diff.Dedupe(items))
	})
	return d, nil
}

// ScanDiff turns a payload-less signal into change sets. It keeps a
// private list per subscriber, diffs get against it once on subscribe and
// again on every event, and emits only non-empty results.
func ScanDiff[T comparable, E any](events reactive.Stream[E], get func() []T) reactive.Stream[change.Set[T]] {
	return reactive.StreamFunc[change.Set[T]](func(next func(change.Set[T])) reactive.Subscription {
		tracked := diff.New[T]()
		scan := func() {
			if cs := tracked.Edit(get()); len(cs) > 0 {
				next(cs)
			}
		}
		sub := events.Subscribe(func(E) { scan() })
		scan()
		return sub
	})
}
