// Package change defines the change-set model shared by every selection:
// a single positional change and an ordered batch of them.
package change

import "fmt"

// Reason identifies the kind of a Change.
type Reason uint8

const (
	Add Reason = iota + 1
	Remove
	Move
	Refresh
)

// String returns a human-readable name for the reason.
func (r Reason) String() string {
	switch r {
	case Add:
		return "Add"
	case Remove:
		return "Remove"
	case Move:
		return "Move"
	case Refresh:
		return "Refresh"
	default:
		return "Unknown"
	}
}

// Change describes one positional edit of an ordered collection.
//
// Index is the position in the post-change sequence for Add and Move, the
// pre-change position for Remove, and the current position for Refresh.
// PreviousIndex is only meaningful for Move and is -1 otherwise.
type Change[T any] struct {
	Reason        Reason
	Item          T
	Index         int
	PreviousIndex int
}

// NewAdd returns an Add change.
func NewAdd[T any](item T, index int) Change[T] {
	return Change[T]{Reason: Add, Item: item, Index: index, PreviousIndex: -1}
}

// NewRemove returns a Remove change.
func NewRemove[T any](item T, index int) Change[T] {
	return Change[T]{Reason: Remove, Item: item, Index: index, PreviousIndex: -1}
}

// NewMove returns a Move change from one position to another.
func NewMove[T any](item T, from, to int) Change[T] {
	return Change[T]{Reason: Move, Item: item, Index: to, PreviousIndex: from}
}

// NewRefresh returns a Refresh change.
func NewRefresh[T any](item T, index int) Change[T] {
	return Change[T]{Reason: Refresh, Item: item, Index: index, PreviousIndex: -1}
}

// String formats the change as Reason(item@index).
func (c Change[T]) String() string {
	if c.Reason == Move {
		return fmt.Sprintf("%s(%v@%d->%d)", c.Reason, c.Item, c.PreviousIndex, c.Index)
	}
	return fmt.Sprintf("%s(%v@%d)", c.Reason, c.Item, c.Index)
}
