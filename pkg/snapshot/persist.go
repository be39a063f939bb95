package snapshot

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vango-dev/selsync/internal/errors"
	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/selection"
)

// Persister writes the latest state of a selection to a Store in the
// background. Only the most recent state waiting to be written is kept, so
// watching a selection never blocks the code that changes it.
type Persister struct {
	store   Store
	key     string
	logger  *slog.Logger
	timeout time.Duration

	pending chan []string
	saved   atomic.Uint64
	failed  atomic.Uint64
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PersisterOption {
	return func(p *Persister) {
		p.logger = logger
	}
}

// WithSaveTimeout bounds each Save call. Default: 10s.
func WithSaveTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) {
		p.timeout = d
	}
}

// NewPersister creates a Persister writing to key in store.
func NewPersister(store Store, key string, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:   store,
		key:     key,
		logger:  slog.Default(),
		timeout: 10 * time.Second,
		pending: make(chan []string, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "snapshot", "key", key)
	return p
}

// Watch queues the items of sel for writing after every change.
func (p *Persister) Watch(sel selection.Selection[string]) reactive.Subscription {
	return sel.Connect(nil).Subscribe(func(change.Set[string]) {
		p.Offer(sel.Items())
	})
}

// Offer queues items for writing, replacing any state not yet written.
func (p *Persister) Offer(items []string) {
	for {
		select {
		case p.pending <- items:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

// Run writes queued states until ctx is done, then writes whatever is
// still queued.
func (p *Persister) Run(ctx context.Context) error {
	for {
		select {
		case items := <-p.pending:
			p.save(ctx, items)
		case <-ctx.Done():
			select {
			case items := <-p.pending:
				p.save(context.WithoutCancel(ctx), items)
			default:
			}
			return nil
		}
	}
}

func (p *Persister) save(ctx context.Context, items []string) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.store.Save(ctx, p.key, items); err != nil {
		p.failed.Add(1)
		p.logger.Error("save snapshot failed", "key", p.key, "error", errors.New("E181").Wrap(err))
		return
	}
	p.saved.Add(1)
	p.logger.Debug("saved snapshot", "items", len(items))
}

// Saved returns the number of successful writes.
func (p *Persister) Saved() uint64 {
	return p.saved.Load()
}

// Failed returns the number of failed writes.
func (p *Persister) Failed() uint64 {
	return p.failed.Load()
}

// Restore loads key from store and applies it to sel. A missing snapshot
// is not an error and leaves sel alone. sel must only be touched from the
// goroutine that drives it; call Restore from there.
func Restore(ctx context.Context, store Store, key string, sel selection.Selection[string]) (bool, error) {
	items, err := store.Load(ctx, key)
	if stderrors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := sel.Update(items...); err != nil {
		return false, fmt.Errorf("snapshot: restore %s: %w", key, err)
	}
	return true, nil
}
