package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/selsync/pkg/change"
)

func TestDiffAndApply(t *testing.T) {
	tests := []struct {
		name    string
		tracked []string
		target  []string
		want    change.Set[string]
		result  []string
	}{
		{
			name: "both empty",
		},
		{
			name:   "empty tracked",
			target: []string{"a", "b"},
			want: change.Set[string]{
				change.NewAdd("a", 0),
				change.NewAdd("b", 1),
			},
			result: []string{"a", "b"},
		},
		{
			name:    "empty target",
			tracked: []string{"a", "b", "c"},
			want: change.Set[string]{
				change.NewRemove("c", 2),
				change.NewRemove("b", 1),
				change.NewRemove("a", 0),
			},
			result: []string{},
		},
		{
			name:    "shift window",
			tracked: []string{"A", "B", "C"},
			target:  []string{"B", "C", "D"},
			want: change.Set[string]{
				change.NewRemove("A", 0),
				change.NewAdd("D", 2),
			},
			result: []string{"B", "C", "D"},
		},
		{
			name:    "reorder only",
			tracked: []string{"a", "b", "c"},
			target:  []string{"c", "a", "b"},
			result:  []string{"c", "a", "b"},
		},
		{
			name:    "duplicates collapse",
			tracked: []string{"x"},
			target:  []string{"x", "x", "y", "x", "y"},
			want:    change.Set[string]{change.NewAdd("y", 1)},
			result:  []string{"x", "y"},
		},
		{
			name:    "interleaved",
			tracked: []string{"a", "b", "c", "d"},
			target:  []string{"e", "b", "f", "d"},
			want: change.Set[string]{
				change.NewRemove("c", 2),
				change.NewRemove("a", 0),
				change.NewAdd("e", 0),
				change.NewAdd("f", 2),
			},
			result: []string{"e", "b", "f", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracked := append([]string(nil), tt.tracked...)
			got := DiffAndApply(&tracked, tt.target)

			assert.Equal(t, tt.want, got)
			if tt.result == nil {
				assert.Empty(t, tracked)
			} else {
				assert.Equal(t, tt.result, tracked)
			}
		})
	}
}

func TestDiffAndApplyMinimality(t *testing.T) {
	tracked := []int{1, 2, 3, 4, 5}
	target := []int{5, 4, 6, 7, 1}

	cs := DiffAndApply(&tracked, target)

	assert.ElementsMatch(t, []int{2, 3}, cs.Removes())
	assert.ElementsMatch(t, []int{6, 7}, cs.Adds())
	assert.Len(t, cs, 4)
}

func TestDiffAndApplyReplaysOntoCopy(t *testing.T) {
	// Applying the emitted changes to the old list must yield the target
	// whenever the surviving items keep their relative order.
	before := []int{1, 2, 3, 4}
	target := []int{0, 2, 4, 5}

	tracked := append([]int(nil), before...)
	cs := DiffAndApply(&tracked, target)

	assert.Equal(t, target, change.ApplyTo(cs, before))
}

func TestDiffAndApplyIdempotent(t *testing.T) {
	tracked := []string{"a", "b"}
	require.NotEmpty(t, DiffAndApply(&tracked, []string{"b", "c"}))
	assert.Empty(t, DiffAndApply(&tracked, []string{"b", "c"}))
}

func TestDiffAndApplyDoesNotAliasTarget(t *testing.T) {
	var tracked []string
	target := []string{"a", "b"}
	DiffAndApply(&tracked, target)

	target[0] = "z"
	assert.Equal(t, []string{"a", "b"}, tracked)
}

type item struct{ name string }

func TestDiffAndApplyComparesByIdentity(t *testing.T) {
	a1 := &item{name: "a"}
	a2 := &item{name: "a"}

	tracked := []*item{a1}
	cs := DiffAndApply(&tracked, []*item{a2})

	require.Len(t, cs, 2)
	assert.Equal(t, change.Remove, cs[0].Reason)
	assert.Same(t, a1, cs[0].Item)
	assert.Equal(t, change.Add, cs[1].Reason)
	assert.Same(t, a2, cs[1].Item)
}

func TestSetDifference(t *testing.T) {
	toAdd, toRemove := SetDifference([]string{"a", "b", "c"}, []string{"c", "d", "d", "a"})
	assert.Equal(t, []string{"d"}, toAdd)
	assert.Equal(t, []string{"b"}, toRemove)

	toAdd, toRemove = SetDifference[string](nil, nil)
	assert.Empty(t, toAdd)
	assert.Empty(t, toRemove)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, Dedupe([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, []int{}, Dedupe[int](nil))
}
