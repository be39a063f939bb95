// Package host adapts selection-bearing controls to the selection package.
//
// The controls here are in-memory models of the widgets a UI toolkit
// provides: a list or grid with single or extended selection, and a tree
// with one selected node. Front ends such as the terminal UI and the
// websocket client drive them; the selection package only sees their
// Source or change stream.
package host

import (
	"errors"

	"github.com/vango-dev/selsync/pkg/diff"
	"github.com/vango-dev/selsync/pkg/selection"
)

// ErrUnknownItem is returned when a control is asked to select an item it
// does not display.
var ErrUnknownItem = errors.New("host: item not in control")

// Mode is the selection mode of a list control.
type Mode int

const (
	// Single allows at most one selected item.
	Single Mode = iota

	// Extended allows any number of selected items.
	Extended
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Extended:
		return "extended"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name. The empty string is Extended.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "extended", "multiple":
		return Extended, nil
	case "single":
		return Single, nil
	default:
		return 0, errors.New("host: unknown selection mode " + s)
	}
}

// MutableSet is a list-like store that only supports single-item edits.
type MutableSet[T comparable] interface {
	Items() []T
	Add(item T)
	Remove(item T)
}

// UpdateSet makes set hold exactly the items of desired by removing what is
// no longer wanted and adding what is missing. It never clears set first,
// and order is not reconciled.
func UpdateSet[T comparable](set MutableSet[T], desired []T) {
	toAdd, toRemove := diff.SetDifference(set.Items(), desired)
	for _, item := range toRemove {
		set.Remove(item)
	}
	for _, item := range toAdd {
		set.Add(item)
	}
}

// Control is anything that can expose its selection.
type Control[T comparable] interface {
	Selection() (*selection.Derived[T], error)
}

// Binding ties a control's selection to a model selection.
type Binding[T comparable] struct {
	control *selection.Derived[T]
	sync    *selection.Synchronizer
}

// Bind synchronises the selection of control with model. A non-empty model
// is pushed into the control; otherwise the control's selection seeds the
// model.
func Bind[T comparable](control Control[T], model selection.Selection[T], opts ...selection.Option) (*Binding[T], error) {
	if control == nil || model == nil {
		return nil, selection.ErrInvalidCapability
	}
	sel, err := control.Selection()
	if err != nil {
		return nil, err
	}
	return &Binding[T]{
		control: sel,
		sync:    selection.Synchronize[T](model, sel, opts...),
	}, nil
}

// Control returns the control side of the binding.
func (b *Binding[T]) Control() selection.Selection[T] {
	return b.control
}

// Dispose releases the synchronizer and the control selection. The model
// is left untouched.
func (b *Binding[T]) Dispose() {
	b.sync.Dispose()
	b.control.Dispose()
}
