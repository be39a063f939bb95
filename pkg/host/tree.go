package host

import (
	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/selection"
)

// Node is a tree node.
type Node[T comparable] struct {
	Value    T
	Children []*Node[T]
}

// NewNode returns a node with the given children.
func NewNode[T comparable](value T, children ...*Node[T]) *Node[T] {
	return &Node[T]{Value: value, Children: children}
}

// TreeControl models a tree with at most one selected node.
type TreeControl[T comparable] struct {
	roots    []*Node[T]
	selected *reactive.Signal[T]
}

// NewTreeControl creates a tree over roots with nothing selected.
func NewTreeControl[T comparable](roots ...*Node[T]) *TreeControl[T] {
	return &TreeControl[T]{
		roots:    roots,
		selected: reactive.NewSignal(*new(T)),
	}
}

// Find returns the node holding item, searching depth first.
func (c *TreeControl[T]) Find(item T) (*Node[T], bool) {
	return find(c.roots, item)
}

func find[T comparable](nodes []*Node[T], item T) (*Node[T], bool) {
	for _, n := range nodes {
		if n.Value == item {
			return n, true
		}
		if found, ok := find(n.Children, item); ok {
			return found, true
		}
	}
	return nil, false
}

// Select selects the node holding item. It reports false if the tree does
// not contain item.
func (c *TreeControl[T]) Select(item T) bool {
	if _, ok := c.Find(item); !ok {
		return false
	}
	c.selected.Set(item)
	return true
}

// ClearSelection deselects the selected node.
func (c *TreeControl[T]) ClearSelection() {
	c.selected.Set(*new(T))
}

// Selected returns the selected item.
func (c *TreeControl[T]) Selected() (T, bool) {
	v := c.selected.Get()
	return v, v != *new(T)
}

// Apply selects the first of items. An empty request, or one whose first
// item is not in the tree, leaves the selection alone.
func (c *TreeControl[T]) Apply(items []T) error {
	if len(items) == 0 {
		return nil
	}
	c.Select(items[0])
	return nil
}

// Selection returns a selection over the selected node.
func (c *TreeControl[T]) Selection() (*selection.Derived[T], error) {
	if c == nil {
		return nil, selection.ErrInvalidCapability
	}
	return selection.NewDerived(selection.ToZeroOne(c.selected.Observe()), c.Apply), nil
}
