package host

import (
	"slices"
	"sync"

	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/selection"
)

// ListControl models a list or grid control. Selected items are kept in
// the order they were selected.
type ListControl[T comparable] struct {
	mu       sync.RWMutex
	mode     Mode
	options  []T
	selected []T

	changed   *reactive.Subject[struct{}]
	activated *reactive.Subject[struct{}]
}

var _ selection.Source[string] = (*ListControl[string])(nil)

// NewListControl creates a control displaying options with nothing selected.
func NewListControl[T comparable](mode Mode, options ...T) *ListControl[T] {
	return &ListControl[T]{
		mode:      mode,
		options:   slices.Clone(options),
		changed:   reactive.NewSubject[struct{}](),
		activated: reactive.NewSubject[struct{}](),
	}
}

// Mode returns the selection mode.
func (c *ListControl[T]) Mode() Mode {
	return c.mode
}

// Options returns the displayed items.
func (c *ListControl[T]) Options() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.options)
}

// SetOptions replaces the displayed items. Selected items that are no
// longer displayed are deselected.
func (c *ListControl[T]) SetOptions(options ...T) {
	c.mu.Lock()
	c.options = slices.Clone(options)
	kept := c.selected[:0:0]
	for _, item := range c.selected {
		if slices.Contains(c.options, item) {
			kept = append(kept, item)
		}
	}
	changed := len(kept) != len(c.selected)
	c.selected = kept
	c.mu.Unlock()

	if changed {
		c.changed.Publish(struct{}{})
	}
}

// IsSelected reports whether item is selected.
func (c *ListControl[T]) IsSelected(item T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.selected, item)
}

// Click selects item alone, as a plain click does.
func (c *ListControl[T]) Click(item T) error {
	if !c.displays(item) {
		return ErrUnknownItem
	}
	c.mutate(func() bool {
		if len(c.selected) == 1 && c.selected[0] == item {
			return false
		}
		c.selected = []T{item}
		return true
	})
	return nil
}

// Toggle flips item, as a modifier click does. In Single mode toggling
// the selected item clears the selection and toggling another selects it.
func (c *ListControl[T]) Toggle(item T) error {
	if !c.displays(item) {
		return ErrUnknownItem
	}
	c.mutate(func() bool {
		if i := slices.Index(c.selected, item); i >= 0 {
			c.selected = slices.Delete(c.selected, i, i+1)
			return true
		}
		if c.mode == Single {
			c.selected = []T{item}
		} else {
			c.selected = append(c.selected, item)
		}
		return true
	})
	return nil
}

// ClearSelection deselects everything.
func (c *ListControl[T]) ClearSelection() {
	c.mutate(func() bool {
		if len(c.selected) == 0 {
			return false
		}
		c.selected = nil
		return true
	})
}

// Focus signals that the control gained focus.
func (c *ListControl[T]) Focus() {
	c.activated.Publish(struct{}{})
}

// Current returns the selected items.
func (c *ListControl[T]) Current() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.selected)
}

// Apply selects items. Extended mode adds and removes single items until
// the selection matches, firing Changed for each edit. Single mode selects
// the last item, or clears the selection when items is empty.
func (c *ListControl[T]) Apply(items []T) error {
	for _, item := range items {
		if !c.displays(item) {
			return ErrUnknownItem
		}
	}
	if c.mode == Extended {
		UpdateSet[T](selectedItems[T]{c}, items)
		return nil
	}
	if len(items) == 0 {
		c.ClearSelection()
		return nil
	}
	return c.Click(items[len(items)-1])
}

// Changed fires after every change of the selection.
func (c *ListControl[T]) Changed() reactive.Stream[struct{}] {
	if c == nil {
		return nil
	}
	return c.changed
}

// Activated fires when the control gains focus.
func (c *ListControl[T]) Activated() reactive.Stream[struct{}] {
	if c == nil {
		return nil
	}
	return c.activated
}

// Selection returns a selection mirroring the control.
func (c *ListControl[T]) Selection() (*selection.Derived[T], error) {
	return selection.NewMirror[T](c)
}

func (c *ListControl[T]) displays(item T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.options, item)
}

// mutate runs fn under the lock and fires Changed if fn reports a change.
func (c *ListControl[T]) mutate(fn func() bool) {
	c.mu.Lock()
	changed := fn()
	c.mu.Unlock()

	if changed {
		c.changed.Publish(struct{}{})
	}
}

// selectedItems exposes the selected items of a control as a MutableSet.
type selectedItems[T comparable] struct {
	c *ListControl[T]
}

func (s selectedItems[T]) Items() []T {
	return s.c.Current()
}

func (s selectedItems[T]) Add(item T) {
	s.c.mutate(func() bool {
		if slices.Contains(s.c.selected, item) {
			return false
		}
		s.c.selected = append(s.c.selected, item)
		return true
	})
}

func (s selectedItems[T]) Remove(item T) {
	s.c.mutate(func() bool {
		i := slices.Index(s.c.selected, item)
		if i < 0 {
			return false
		}
		s.c.selected = slices.Delete(s.c.selected, i, i+1)
		return true
	})
}
