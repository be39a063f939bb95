package selection

import (
	"fmt"

	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/diff"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// Selectable is an item that carries its own selected flag.
type Selectable interface {
	Selected() bool
	SetSelected(selected bool)
	SelectedChanged() reactive.Stream[bool]
}

// NewSelectableItems returns a selection over the items whose flag is set.
// Updating it flips the flags.
func NewSelectableItems[S interface {
	comparable
	Selectable
}](items []S) (*Derived[S], error) {
	return NewAddRemove(selectedChanges(items), Store[S]{
		Add: func(item S) error {
			item.SetSelected(true)
			return nil
		},
		Remove: func(item S) error {
			item.SetSelected(false)
			return nil
		},
	})
}

// selectedChanges emits the items already selected on subscribe and then
// one change per flag flip.
func selectedChanges[S interface {
	comparable
	Selectable
}](items []S) reactive.Stream[change.Set[S]] {
	return reactive.StreamFunc[change.Set[S]](func(next func(change.Set[S])) reactive.Subscription {
		tracked := diff.New[S]()
		subs := reactive.NewComposite()

		for _, item := range items {
			subs.Add(item.SelectedChanged().Subscribe(func(selected bool) {
				var (
					cs change.Set[S]
					ok bool
				)
				if selected {
					cs, ok = tracked.Add(item)
				} else {
					cs, ok = tracked.Remove(item)
				}
				if ok {
					next(cs)
				}
			}))
		}

		var initial []S
		for _, item := range items {
			if item.Selected() {
				initial = append(initial, item)
			}
		}
		if cs := tracked.Edit(initial); len(cs) > 0 {
			next(cs)
		}
		return subs
	})
}

// Item is a Selectable wrapper around a value.
type Item[V any] struct {
	Value    V
	selected *reactive.Signal[bool]
}

// NewItem returns an unselected Item holding v.
func NewItem[V any](v V) *Item[V] {
	return &Item[V]{Value: v, selected: reactive.NewSignal(false)}
}

func (i *Item[V]) Selected() bool {
	return i.selected.Get()
}

func (i *Item[V]) SetSelected(selected bool) {
	i.selected.Set(selected)
}

func (i *Item[V]) SelectedChanged() reactive.Stream[bool] {
	return i.selected.Changes()
}

func (i *Item[V]) String() string {
	return fmt.Sprint(i.Value)
}
