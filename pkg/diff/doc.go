// Package diff implements the ordered diff engine that turns a new snapshot
// of a selection into the Add and Remove changes needed to reach it.
//
// Diffing is presence-only: an item that stays in the snapshot but moves
// produces no change, although the tracked order is still updated to match
// the snapshot exactly. Items are compared with ==, so pointer items compare
// by identity. Duplicate entries in a snapshot collapse to their first
// occurrence.
//
//	tracked := []string{"A", "B", "C"}
//	cs := diff.DiffAndApply(&tracked, []string{"B", "C", "D"})
//	// cs      == [Remove(A@0) Add(D@2)]
//	// tracked == [B C D]
package diff
