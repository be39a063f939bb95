// Package filectl treats a plain text file, one item per line, as an
// external selection source. Edits made to the file by other programs show
// up as selection changes; updates are written back atomically.
package filectl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/selection"
)

// MaxItemSize is the longest line, in bytes, that ParseItems accepts.
const MaxItemSize = 1 << 20

// ErrInvalidItem is returned for items that would not read back unchanged
// from a selection file.
var ErrInvalidItem = errors.New("filectl: invalid item")

// File is a selection source backed by a text file.
type File struct {
	path   string
	loop   *dispatch.Loop
	logger *slog.Logger

	mu   sync.Mutex
	last []string

	changed *reactive.Subject[struct{}]
	watcher *fsnotify.Watcher
}

var _ selection.Source[string] = (*File)(nil)

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *File) {
		f.logger = logger
	}
}

// Open watches path, creating it empty if it does not exist. Change
// notifications are delivered on loop.
func Open(path string, loop *dispatch.Loop, opts ...Option) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f := &File{
		path:    abs,
		loop:    loop,
		logger:  slog.Default(),
		changed: reactive.NewSubject[struct{}](),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "filectl", "path", abs)

	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(abs, nil, 0o644); err != nil {
			return nil, fmt.Errorf("filectl: create %s: %w", abs, err)
		}
	} else if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: an atomic replace swaps the inode, which would
	// end a watch on the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("filectl: watch %s: %w", abs, err)
	}
	f.watcher = w
	f.last, _ = f.read()
	return f, nil
}

// Path returns the absolute path of the file.
func (f *File) Path() string {
	return f.path
}

// Current returns the items listed in the file. If the file cannot be
// read, the last items read are returned.
func (f *File) Current() []string {
	items, err := f.read()
	if err != nil {
		f.logger.Warn("read failed", "error", err)
		f.mu.Lock()
		defer f.mu.Unlock()
		return slices.Clone(f.last)
	}
	f.mu.Lock()
	f.last = items
	f.mu.Unlock()
	return slices.Clone(items)
}

// Apply replaces the file's contents with items. Writing the current
// contents is skipped.
func (f *File) Apply(items []string) error {
	if current, err := f.read(); err == nil && slices.Equal(current, items) {
		return nil
	}
	if err := WriteItems(f.path, items); err != nil {
		return err
	}
	f.mu.Lock()
	f.last = slices.Clone(items)
	f.mu.Unlock()

	f.changed.Publish(struct{}{})
	return nil
}

// Changed fires after the file changed.
func (f *File) Changed() reactive.Stream[struct{}] {
	if f == nil {
		return nil
	}
	return f.changed
}

// Activated never fires; files have no focus.
func (f *File) Activated() reactive.Stream[struct{}] {
	if f == nil {
		return nil
	}
	return reactive.Never[struct{}]()
}

// Selection returns a selection mirroring the file.
func (f *File) Selection() (*selection.Derived[string], error) {
	return selection.NewMirror[string](f)
}

// Run forwards file system events until ctx is done or Close is called.
func (f *File) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if !f.relevant(ev) {
				continue
			}
			f.logger.Debug("file event", "op", ev.Op.String())
			if err := f.loop.Dispatch(func() { f.changed.Publish(struct{}{}) }); err != nil {
				f.logger.Warn("dropped file event", "error", err)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("watch error", "error", err)
		}
	}
}

func (f *File) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != f.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

// Close stops watching.
func (f *File) Close() error {
	return f.watcher.Close()
}

func (f *File) read() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseItems(data)
}

// ParseItems parses one item per line. Blank lines and lines starting with
// '#' are skipped and surrounding space is trimmed. Lines longer than
// MaxItemSize fail with bufio.ErrTooLong.
func ParseItems(data []byte) ([]string, error) {
	var items []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), MaxItemSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("filectl: parse: %w", err)
	}
	return items, nil
}

// ValidItem reports whether item survives a write and a ParseItems round
// trip.
func ValidItem(item string) error {
	switch {
	case item == "":
		return fmt.Errorf("%w: empty", ErrInvalidItem)
	case len(item) >= MaxItemSize:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidItem, MaxItemSize-1)
	case strings.TrimSpace(item) != item:
		return fmt.Errorf("%w: %q has surrounding space", ErrInvalidItem, item)
	case strings.HasPrefix(item, "#"):
		return fmt.Errorf("%w: %q starts with '#'", ErrInvalidItem, item)
	case strings.ContainsAny(item, "\r\n"):
		return fmt.Errorf("%w: %q spans lines", ErrInvalidItem, item)
	}
	return nil
}

// WriteItems writes items to path, one per line, through a temporary file
// renamed into place. Items rejected by ValidItem leave the file untouched.
func WriteItems(path string, items []string) error {
	for _, item := range items {
		if err := ValidItem(item); err != nil {
			return fmt.Errorf("filectl: write %s: %w", path, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("filectl: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, item := range items {
		w.WriteString(item)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("filectl: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("filectl: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filectl: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("filectl: rename %s: %w", path, err)
	}
	return nil
}
