package selection

import (
	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
)

// spy counts the mutations a synchronizer makes on a selection.
type spy[T comparable] struct {
	Selection[T]
	updates   [][]T
	refreshes int
}

func newSpy[T comparable](sel Selection[T]) *spy[T] {
	return &spy[T]{Selection: sel}
}

func (s *spy[T]) Update(items ...T) error {
	s.updates = append(s.updates, append([]T(nil), items...))
	return s.Selection.Update(items...)
}

func (s *spy[T]) Refresh() {
	s.refreshes++
	s.Selection.Refresh()
}

// record collects every change set a stream emits.
func record[T any](stream reactive.Stream[change.Set[T]]) (*[]change.Set[T], reactive.Subscription) {
	var got []change.Set[T]
	sub := stream.Subscribe(func(cs change.Set[T]) {
		got = append(got, cs)
	})
	return &got, sub
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	items     []string
	applies   [][]string
	failWith  error
	changed   *reactive.Subject[struct{}]
	activated *reactive.Subject[struct{}]
}

func newFakeSource(items ...string) *fakeSource {
	return &fakeSource{
		items:     items,
		changed:   reactive.NewSubject[struct{}](),
		activated: reactive.NewSubject[struct{}](),
	}
}

func (f *fakeSource) Current() []string {
	return append([]string(nil), f.items...)
}

func (f *fakeSource) Apply(items []string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.applies = append(f.applies, items)
	f.set(items...)
	return nil
}

func (f *fakeSource) set(items ...string) {
	f.items = append([]string(nil), items...)
	f.changed.Publish(struct{}{})
}

func (f *fakeSource) Changed() reactive.Stream[struct{}] {
	return f.changed
}

func (f *fakeSource) Activated() reactive.Stream[struct{}] {
	return f.activated
}
