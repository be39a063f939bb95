package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)
	assert.Equal(t, 0, count.Get())

	count.Set(5)
	assert.Equal(t, 5, count.Get())

	count.Update(func(n int) int { return n * 2 })
	assert.Equal(t, 10, count.Get())
}

func TestSignalObserveEmitsCurrentThenChanges(t *testing.T) {
	name := NewSignal("alice")
	var got []string

	sub := name.Observe().Subscribe(func(v string) { got = append(got, v) })
	name.Set("bob")
	name.Set("bob")
	sub.Dispose()
	name.Set("carol")

	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestSignalChangesSkipsInitial(t *testing.T) {
	s := NewSignal(1)
	var got []int
	s.Changes().Subscribe(func(v int) { got = append(got, v) })
	s.Set(2)
	assert.Equal(t, []int{2}, got)
}

type node struct{ name string }

func TestSignalPointerIdentity(t *testing.T) {
	a := &node{name: "x"}
	b := &node{name: "x"}

	s := NewSignal(a)
	notified := 0
	s.Changes().Subscribe(func(*node) { notified++ })

	s.Set(a)
	assert.Equal(t, 0, notified)

	s.Set(b)
	assert.Equal(t, 1, notified, "distinct pointers with equal contents are different values")
}

func TestSignalSliceUsesDeepEqual(t *testing.T) {
	s := NewSignal([]int{1, 2})
	notified := 0
	s.Changes().Subscribe(func([]int) { notified++ })

	s.Set([]int{1, 2})
	assert.Equal(t, 0, notified)

	s.Set([]int{1, 2, 3})
	assert.Equal(t, 1, notified)
}

func TestSignalWithEquals(t *testing.T) {
	s := NewSignal(10).WithEquals(func(a, b int) bool { return a/10 == b/10 })
	notified := 0
	s.Changes().Subscribe(func(int) { notified++ })

	s.Set(15)
	assert.Equal(t, 0, notified)
	assert.Equal(t, 10, s.Get())

	s.Set(21)
	assert.Equal(t, 1, notified)
}
