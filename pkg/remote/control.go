package remote

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/selsync/internal/errors"
	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/selection"
)

const writeWait = 10 * time.Second

// Control is the server-side model of one connected client's list.
// Frames read from the socket are handled on the dispatch loop.
type Control struct {
	id      string
	conn    *websocket.Conn
	loop    *dispatch.Loop
	options []string
	logger  *slog.Logger

	writeMu sync.Mutex
	gone    atomic.Bool

	mu    sync.RWMutex
	items []string

	changed   *reactive.Subject[struct{}]
	activated *reactive.Subject[struct{}]
}

var _ selection.Source[string] = (*Control)(nil)

func newControl(id string, conn *websocket.Conn, loop *dispatch.Loop, options []string, logger *slog.Logger) *Control {
	return &Control{
		id:        id,
		conn:      conn,
		loop:      loop,
		options:   options,
		logger:    logger.With("session_id", id),
		changed:   reactive.NewSubject[struct{}](),
		activated: reactive.NewSubject[struct{}](),
	}
}

// ID returns the session id.
func (c *Control) ID() string {
	return c.id
}

// Current returns the client's selection as last reported or applied.
func (c *Control) Current() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Apply sends items to the client. Applying the current selection sends
// nothing, and so does applying after the client has left.
func (c *Control) Apply(items []string) error {
	if c.gone.Load() {
		return nil
	}
	if !c.setItems(items) {
		return nil
	}
	if err := c.write(Frame{Type: FrameApply, Items: items}); err != nil {
		return fmt.Errorf("remote: apply to %s: %w", c.id, err)
	}
	c.changed.Publish(struct{}{})
	return nil
}

// Selection returns a selection mirroring the client.
func (c *Control) Selection() (*selection.Derived[string], error) {
	return selection.NewMirror[string](c)
}

// Changed fires after the client or Apply changed the selection.
func (c *Control) Changed() reactive.Stream[struct{}] {
	if c == nil {
		return nil
	}
	return c.changed
}

// Activated fires when the client reports focus.
func (c *Control) Activated() reactive.Stream[struct{}] {
	if c == nil {
		return nil
	}
	return c.activated
}

func (c *Control) setItems(items []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Equal(c.items, items) {
		return false
	}
	c.items = slices.Clone(items)
	return true
}

// leave marks the client as disconnected.
func (c *Control) leave() {
	c.gone.Store(true)
}

func (c *Control) hello(items []string) error {
	c.setItems(items)
	return c.write(Frame{
		Type:    FrameHello,
		Session: c.id,
		Options: c.options,
		Items:   c.Current(),
	})
}

func (c *Control) write(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(f)
}

// readLoop handles client frames until the connection fails or ctx ends.
func (c *Control) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}

		f, err := DecodeFrame(data)
		if err == nil {
			err = c.validate(f)
		}
		if err != nil {
			c.logger.Debug("rejected frame", "error", err)
			if werr := c.write(Frame{Type: FrameError, Message: err.Error()}); werr != nil {
				return werr
			}
			continue
		}

		if err := c.loop.Dispatch(func() { c.handle(f) }); err != nil {
			c.logger.Warn("dropped frame", "type", f.Type, "error", err)
		}
	}
}

func (c *Control) validate(f Frame) error {
	if f.Type != FrameSelect || len(c.options) == 0 {
		return nil
	}
	for _, item := range f.Items {
		if !slices.Contains(c.options, item) {
			return errors.New("E161").Wrap(fmt.Errorf("%q is not an option", item))
		}
	}
	return nil
}

func (c *Control) handle(f Frame) {
	switch f.Type {
	case FrameSelect:
		if c.setItems(f.Items) {
			c.changed.Publish(struct{}{})
		}
	case FrameFocus:
		c.activated.Publish(struct{}{})
	}
}
