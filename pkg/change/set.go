package change

import "strings"

// Set is an ordered batch of changes, applied strictly in order.
// An empty Set is valid and means nothing changed.
type Set[T any] []Change[T]

// HasRefresh reports whether any change in the set is a Refresh.
func (s Set[T]) HasRefresh() bool {
	for _, c := range s {
		if c.Reason == Refresh {
			return true
		}
	}
	return false
}

// Count returns the number of changes with the given reason.
func (s Set[T]) Count(reason Reason) int {
	n := 0
	for _, c := range s {
		if c.Reason == reason {
			n++
		}
	}
	return n
}

// Adds returns the items added by the set, in order.
func (s Set[T]) Adds() []T {
	return s.items(Add)
}

// Removes returns the items removed by the set, in order.
func (s Set[T]) Removes() []T {
	return s.items(Remove)
}

func (s Set[T]) items(reason Reason) []T {
	var out []T
	for _, c := range s {
		if c.Reason == reason {
			out = append(out, c.Item)
		}
	}
	return out
}

// Filter returns the changes whose item satisfies pred. A nil pred keeps
// every change. Indices are left untouched, so they keep referring to
// positions in the unfiltered sequence.
func (s Set[T]) Filter(pred func(T) bool) Set[T] {
	if pred == nil {
		return s
	}
	var out Set[T]
	for _, c := range s {
		if pred(c.Item) {
			out = append(out, c)
		}
	}
	return out
}

// ApplyTo applies the set to items and returns the resulting slice.
// Out of range indices are clamped; a Remove whose index does not hold the
// item falls back to removing the first equal item.
func ApplyTo[T comparable](s Set[T], items []T) []T {
	out := make([]T, len(items), len(items)+s.Count(Add))
	copy(out, items)

	for _, c := range s {
		switch c.Reason {
		case Add:
			out = insertAt(out, clamp(c.Index, len(out)), c.Item)
		case Remove:
			i := c.Index
			if i < 0 || i >= len(out) || out[i] != c.Item {
				i = indexOf(out, c.Item)
			}
			if i >= 0 {
				out = append(out[:i], out[i+1:]...)
			}
		case Move:
			from := c.PreviousIndex
			if from < 0 || from >= len(out) || out[from] != c.Item {
				from = indexOf(out, c.Item)
			}
			if from < 0 {
				continue
			}
			out = append(out[:from], out[from+1:]...)
			out = insertAt(out, clamp(c.Index, len(out)), c.Item)
		}
	}
	return out
}

// RefreshAll returns a Refresh change for every item, in order.
func RefreshAll[T any](items []T) Set[T] {
	out := make(Set[T], 0, len(items))
	for i, item := range items {
		out = append(out, NewRefresh(item, i))
	}
	return out
}

// String formats the set as a bracketed list of changes.
func (s Set[T]) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func insertAt[T any](items []T, i int, item T) []T {
	var zero T
	items = append(items, zero)
	copy(items[i+1:], items[i:])
	items[i] = item
	return items
}

func indexOf[T comparable](items []T, item T) int {
	for i, v := range items {
		if v == item {
			return i
		}
	}
	return -1
}
