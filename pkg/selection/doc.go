// Package selection represents a selection, an ordered duplicate-free set
// of items held by some owner, as an observable sequence of change sets,
// and keeps two such selections consistent without feedback loops.
//
// Every variant implements [Selection]. They differ only in how Update is
// realised against the state they wrap:
//
//   - [List] holds its items itself and diffs every update.
//   - [NewAddRemove] drives a store that only knows per-item add and remove.
//   - [NewSingle] and [NewProperty] wrap a one-value slot; the last item wins.
//   - [NewMirror] follows an external [Source] that reports its own state.
//
// [Synchronize] binds two selections so that a change on either side is
// replayed on the other exactly once.
//
// Delivery is synchronous. A selection and everything bound to it must be
// driven from one goroutine at a time; see package dispatch for a loop that
// marshals events from other goroutines.
package selection
