package filectl

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/selection"
)

func runLoop(t *testing.T) *dispatch.Loop {
	t.Helper()
	loop := dispatch.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		loop.Close()
	})
	return loop
}

func openFile(t *testing.T, loop *dispatch.Loop, content string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selection.txt")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	f, err := Open(path, loop)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = f.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		f.Close()
	})
	return f
}

func TestParseItems(t *testing.T) {
	got, err := ParseItems([]byte("a\n\n  b  \n# comment\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = ParseItems(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseItemsLongLine(t *testing.T) {
	long := strings.Repeat("x", 100*1024)
	got, err := ParseItems([]byte("a\n" + long + "\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", long, "b"}, got)

	_, err = ParseItems([]byte("a\n" + strings.Repeat("x", MaxItemSize+1) + "\nb\n"))
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestWriteItemsRejectsItemsThatDoNotRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		item string
	}{
		{"empty", ""},
		{"leading space", " a"},
		{"trailing tab", "a\t"},
		{"comment", "#a"},
		{"newline", "a\nb"},
		{"carriage return", "a\r"},
		{"too long", strings.Repeat("x", MaxItemSize)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			err := WriteItems(path, []string{"ok", tt.item})
			assert.ErrorIs(t, err, ErrInvalidItem)

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "nothing is written")
		})
	}

	for _, item := range []string{"a b", "a#b", "ünï"} {
		assert.NoError(t, ValidItem(item), item)
	}
}

func TestApplyRejectsInvalidItem(t *testing.T) {
	loop := runLoop(t)
	f := openFile(t, loop, "a\n")

	err := f.Apply([]string{"a", " b"})
	require.ErrorIs(t, err, ErrInvalidItem)

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))
	assert.Equal(t, []string{"a"}, f.Current())
}

func TestWriteItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteItems(path, []string{"x", "y"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")
}

func TestOpenCreatesFile(t *testing.T) {
	loop := runLoop(t)
	f := openFile(t, loop, "")

	_, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Empty(t, f.Current())
}

func TestApplyWritesFile(t *testing.T) {
	loop := runLoop(t)
	f := openFile(t, loop, "a\n")

	var changes atomic.Int32
	f.Changed().Subscribe(func(struct{}) { changes.Add(1) })

	require.NoError(t, f.Apply([]string{"a", "b"}))
	require.NoError(t, f.Apply([]string{"a", "b"}))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
	assert.GreaterOrEqual(t, changes.Load(), int32(1))
}

func TestExternalEditReachesSelection(t *testing.T) {
	loop := runLoop(t)
	f := openFile(t, loop, "a\nb\n")

	var sel *selection.Derived[string]
	require.NoError(t, loop.Call(context.Background(), func() error {
		var err error
		sel, err = f.Selection()
		return err
	}))

	items := func() []string {
		var out []string
		_ = loop.Call(context.Background(), func() error {
			out = sel.Items()
			return nil
		})
		return out
	}
	assert.Equal(t, []string{"a", "b"}, items())

	require.NoError(t, os.WriteFile(f.Path(), []byte("b\nc\n"), 0o644))

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"b", "c"}, items())
	}, 3*time.Second, 10*time.Millisecond)
}

func TestMirrorTwoFiles(t *testing.T) {
	loop := runLoop(t)
	left := openFile(t, loop, "x\n")
	right := openFile(t, loop, "")

	require.NoError(t, loop.Call(context.Background(), func() error {
		ls, err := left.Selection()
		if err != nil {
			return err
		}
		rs, err := right.Selection()
		if err != nil {
			return err
		}
		selection.Synchronize[string](ls, rs)
		return nil
	}))

	data, err := os.ReadFile(right.Path())
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))

	require.NoError(t, os.WriteFile(right.Path(), []byte("x\ny\n"), 0o644))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(left.Path())
		return err == nil && string(data) == "x\ny\n"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestNilFileSelection(t *testing.T) {
	var f *File
	_, err := f.Selection()
	assert.ErrorIs(t, err, selection.ErrInvalidCapability)
}
