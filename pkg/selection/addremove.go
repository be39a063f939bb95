package selection

import (
	"fmt"

	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/diff"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// Store is backing state that can only add or remove single items.
type Store[T comparable] struct {
	Add    func(T) error
	Remove func(T) error
}

// NewAddRemove returns a selection over changes whose updates are realised
// by set difference: every item no longer wanted is removed, then every
// missing item is added, one callback per item. Order is not reconciled.
// The first failing callback aborts the update.
func NewAddRemove[T comparable](changes reactive.Stream[change.Set[T]], store Store[T]) (*Derived[T], error) {
	if changes == nil || store.Add == nil || store.Remove == nil {
		return nil, ErrInvalidCapability
	}

	var d *Derived[T]
	d = NewDerived(changes, func(items []T) error {
		toAdd, toRemove := diff.SetDifference(d.Items(), items)
		for _, item := range toRemove {
			if err := store.Remove(item); err != nil {
				return fmt.Errorf("selsync: remove %v: %w", item, err)
			}
		}
		for _, item := range toAdd {
			if err := store.Add(item); err != nil {
				return fmt.Errorf("selsync: add %v: %w", item, err)
			}
		}
		return nil
	})
	return d, nil
}
