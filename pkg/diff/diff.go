package diff

import "github.com/vango-dev/selsync/pkg/change"

// DiffAndApply computes the changes that turn *tracked into target and then
// replaces *tracked with the deduplicated target.
//
// Removes come first, highest original index first, so each index is valid
// against the list as it stands when the change is applied. Adds follow in
// target order, each carrying its position in the deduplicated target.
// The function never fails: empty inputs on either side are ordinary cases.
func DiffAndApply[T comparable](tracked *[]T, target []T) change.Set[T] {
	next := Dedupe(target)
	current := *tracked

	wanted := make(map[T]struct{}, len(next))
	for _, item := range next {
		wanted[item] = struct{}{}
	}
	held := make(map[T]struct{}, len(current))
	for _, item := range current {
		held[item] = struct{}{}
	}

	var cs change.Set[T]
	for i := len(current) - 1; i >= 0; i-- {
		if _, ok := wanted[current[i]]; !ok {
			cs = append(cs, change.NewRemove(current[i], i))
		}
	}
	for j, item := range next {
		if _, ok := held[item]; !ok {
			cs = append(cs, change.NewAdd(item, j))
		}
	}

	*tracked = next
	return cs
}

// Dedupe returns a new slice holding the first occurrence of every item, in
// order. It never returns the input slice.
func Dedupe[T comparable](items []T) []T {
	out := make([]T, 0, len(items))
	seen := make(map[T]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SetDifference splits the transition from current to desired into the
// items to add (desired order) and the items to remove (current order).
// Order is not compared; only presence matters.
func SetDifference[T comparable](current, desired []T) (toAdd, toRemove []T) {
	want := Dedupe(desired)

	inDesired := make(map[T]struct{}, len(want))
	for _, item := range want {
		inDesired[item] = struct{}{}
	}
	inCurrent := make(map[T]struct{}, len(current))
	for _, item := range current {
		inCurrent[item] = struct{}{}
	}

	for _, item := range current {
		if _, ok := inDesired[item]; !ok {
			toRemove = append(toRemove, item)
		}
	}
	for _, item := range want {
		if _, ok := inCurrent[item]; !ok {
			toAdd = append(toAdd, item)
		}
	}
	return toAdd, toRemove
}
