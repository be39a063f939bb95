package selection

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/selsync/pkg/reactive"
)

func TestSynchronizeNoEcho(t *testing.T) {
	left := newSpy[string](NewList[string]())
	right := newSpy[string](NewList[string]())
	s := Synchronize[string](left, right)
	defer s.Dispose()

	got, sub := record(right.Connect(nil))
	defer sub.Dispose()

	require.NoError(t, left.Update("x"))

	assert.Len(t, left.updates, 1, "no round trip back into the leader")
	assert.Len(t, right.updates, 1)
	assert.Len(t, *got, 1, "exactly one state change on the follower")
	assert.Equal(t, []string{"x"}, right.Items())
}

func TestSynchronizeBothDirections(t *testing.T) {
	left := NewList[int]()
	right := NewList[int]()
	s := Synchronize[int](left, right)
	defer s.Dispose()

	require.NoError(t, left.Update(1, 2, 3))
	assert.Equal(t, []int{1, 2, 3}, right.Items())

	right.Remove(2)
	assert.Equal(t, []int{1, 3}, left.Items())

	left.Add(4)
	assert.Equal(t, []int{1, 3, 4}, right.Items())
}

func TestSynchronizeRefreshPropagation(t *testing.T) {
	left := newSpy[string](NewList("a"))
	right := newSpy[string](NewList[string]())
	s := Synchronize[string](left, right)
	defer s.Dispose()

	gotLeft, subL := record(left.Connect(nil))
	defer subL.Dispose()
	gotRight, subR := record(right.Connect(nil))
	defer subR.Dispose()

	left.Refresh()

	assert.Equal(t, 1, right.refreshes)
	assert.Equal(t, 1, left.refreshes, "the refresh does not bounce back")
	assert.Empty(t, *gotLeft)
	assert.Empty(t, *gotRight)
	assert.Equal(t, []string{"a"}, right.Items())
}

func TestSynchronizeRefreshInChangeSet(t *testing.T) {
	src := newFakeSource("a")
	mirror, err := NewMirror[string](src)
	require.NoError(t, err)

	follower := newSpy[string](NewList[string]())
	s := Synchronize[string](mirror, follower)
	defer s.Dispose()
	require.Equal(t, []string{"a"}, follower.Items())

	src.activated.Publish(struct{}{})

	assert.Equal(t, 1, follower.refreshes)
	assert.Len(t, follower.updates, 2)
	assert.Equal(t, []string{"a"}, follower.Items())
}

func TestSynchronizeInitialSync(t *testing.T) {
	left := newSpy[int](NewList[int]())
	right := newSpy[int](NewList(1, 2))

	got, sub := record(right.Connect(nil))
	defer sub.Dispose()

	s := Synchronize[int](left, right)
	defer s.Dispose()

	assert.Equal(t, []int{1, 2}, left.Items())
	assert.Empty(t, right.updates, "right never receives a reciprocal update")
	assert.Empty(t, *got)
}

func TestSynchronizeInitialSyncPrefersLeft(t *testing.T) {
	left := NewList("a")
	right := NewList("b")
	s := Synchronize[string](left, right)
	defer s.Dispose()

	assert.Equal(t, []string{"a"}, left.Items())
	assert.Equal(t, []string{"a"}, right.Items())
}

func TestSynchronizeBothEmpty(t *testing.T) {
	left := newSpy[int](NewList[int]())
	right := newSpy[int](NewList[int]())
	s := Synchronize[int](left, right)
	defer s.Dispose()

	assert.Empty(t, left.updates)
	assert.Empty(t, right.updates)
}

func TestSynchronizeDispose(t *testing.T) {
	left := NewList[string]()
	right := NewList[string]()
	s := Synchronize[string](left, right)

	s.Dispose()
	s.Dispose()
	assert.True(t, s.IsDisposed())

	require.NoError(t, left.Update("x"))
	require.NoError(t, right.Update("y"))
	assert.Equal(t, []string{"x"}, left.Items())
	assert.Equal(t, []string{"y"}, right.Items())
}

func TestSynchronizeMixedVariants(t *testing.T) {
	list := NewList[string]()
	prop := reactive.NewSignal("")
	single, err := NewProperty(prop)
	require.NoError(t, err)

	s := Synchronize[string](list, single, WithName("primary"))
	defer s.Dispose()
	assert.Equal(t, "primary", s.Name())

	require.NoError(t, list.Update("a", "b"))
	assert.Equal(t, "b", prop.Get())
	assert.Equal(t, []string{"b"}, single.Items())
	assert.Equal(t, []string{"a", "b"}, list.Items(), "the follower's narrowing does not echo")

	prop.Set("c")
	assert.Equal(t, []string{"c"}, list.Items())
}

func TestSynchronizeSelectableItems(t *testing.T) {
	a, b := NewItem("a"), NewItem("b")
	items, err := NewSelectableItems([]*Item[string]{a, b})
	require.NoError(t, err)

	list := NewList[*Item[string]]()
	s := Synchronize[*Item[string]](list, items)
	defer s.Dispose()

	require.NoError(t, list.Update(b))
	assert.True(t, b.Selected())
	assert.False(t, a.Selected())

	a.SetSelected(true)
	assert.Equal(t, []*Item[string]{b, a}, list.Items())
}

func TestSynchronizeUpdateErrorIsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(reg))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	left := NewList[string]()
	right := NewList[string]()
	s := Synchronize[string](left, right,
		WithName("broken"),
		WithMetrics(metrics),
		WithLogger(logger),
	)
	defer s.Dispose()

	right.Dispose()
	require.NoError(t, left.Update("x"))
	require.NoError(t, left.Update("y"))

	assert.Equal(t, 2.0, counterValue(t, reg, "selsync_sync_update_errors_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "selsync_sync_propagations_total"))
	assert.Contains(t, logs.String(), "peer update failed")
	assert.Contains(t, logs.String(), "sync=broken")

	right2 := NewList[string]()
	s2 := Synchronize[string](left, right2)
	defer s2.Dispose()
	assert.Equal(t, []string{"y"}, right2.Items(), "the guard is released after a failure")
}

func TestSynchronizeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	left := NewList[string]()
	right := NewList[string]()
	s := Synchronize[string](left, right, WithMetrics(metrics))
	defer s.Dispose()

	require.NoError(t, left.Update("a", "b"))
	left.Refresh()

	assert.Equal(t, 1.0, counterValue(t, reg, "test_sync_propagations_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "test_sync_suppressed_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "test_sync_refreshes_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "test_sync_changes_total"))
}

// counterValue sums every series of the named counter.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}
