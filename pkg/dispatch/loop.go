// Package dispatch runs callbacks one at a time on a single goroutine.
//
// Selections deliver changes synchronously and assume a single thread of
// control. Code that reacts to network, file or timer events on other
// goroutines hands its work to a Loop, which serialises it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	// ErrQueueFull is returned by Dispatch when the queue has no room.
	ErrQueueFull = errors.New("dispatch: queue full")

	// ErrClosed is returned once the loop has been closed.
	ErrClosed = errors.New("dispatch: loop closed")
)

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 256

// Loop is a serial executor. Create it with New and start it with Run.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	logger *slog.Logger

	// running is set while Run executes.
	running atomic.Bool
	panics  atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for panics and dropped callbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan func(), n)
		}
	}
}

// New creates a Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue: make(chan func(), DefaultQueueSize),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "dispatch")
	return l
}

// Dispatch queues fn without waiting for it to run.
func (l *Loop) Dispatch(fn func()) error {
	if fn == nil {
		return nil
	}
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	default:
		l.logger.Warn("dispatch queue full, discarding callback")
		return ErrQueueFull
	}
}

// Call queues fn and waits until it has run, returning its error. A panic
// in fn is returned as an error.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	if l.closed.Load() {
		return ErrClosed
	}

	result := make(chan error, 1)
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("dispatch: callback panic: %v", r)
				panic(r)
			}
		}()
		result <- fn()
	}

	select {
	case l.queue <- wrapped:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// The loop may have run fn just before closing.
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued callbacks until ctx is cancelled or Close is called.
// Panics are logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("dispatch: loop already running")
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error("callback panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Panics returns the number of callbacks that panicked.
func (l *Loop) Panics() uint64 {
	return l.panics.Load()
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	return len(l.queue)
}

// Close stops the loop. Callbacks still queued are discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
