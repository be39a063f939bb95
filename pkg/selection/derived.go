package selection

import (
	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// UpdateFunc realises an update against the state behind a Derived
// selection. It receives the requested items as given, duplicates included.
type UpdateFunc[T comparable] func(items []T) error

// Derived is a selection whose items are materialised from an external
// change stream. Updates are delegated to an UpdateFunc, which is expected
// to cause the stream to emit. Derived selections never refresh.
type Derived[T comparable] struct {
	observable[T]
	update UpdateFunc[T]
	sub    reactive.Subscription
}

var _ Selection[int] = (*Derived[int])(nil)

// NewDerived subscribes to changes and returns a selection that mirrors
// them. A nil update makes every Update a no-op.
func NewDerived[T comparable](changes reactive.Stream[change.Set[T]], update UpdateFunc[T]) *Derived[T] {
	d := &Derived[T]{
		observable: newObservable[T](),
		update:     update,
	}
	if changes == nil {
		d.sub = reactive.Empty()
		return d
	}
	d.sub = changes.Subscribe(d.apply)
	return d
}

func (d *Derived[T]) apply(cs change.Set[T]) {
	if d.disposed.Load() || len(cs) == 0 {
		return
	}
	d.commit(cs, change.ApplyTo(cs, d.Items()))
}

// Update hands items to the backing state.
func (d *Derived[T]) Update(items ...T) error {
	if d.disposed.Load() {
		return ErrDisposed
	}
	if d.update == nil {
		return nil
	}
	return d.update(items)
}

// Refresh is ignored.
func (d *Derived[T]) Refresh() {}

// Dispose stops following the change stream.
func (d *Derived[T]) Dispose() {
	if !d.dispose() {
		return
	}
	if d.sub != nil {
		d.sub.Dispose()
	}
}
