package selection

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/selsync/pkg/change"
	"github.com/vango-dev/selsync/pkg/reactive"
)

const tracerName = "github.com/vango-dev/selsync/pkg/selection"

// Direction labels used in logs, metrics and spans.
const (
	LeftToRight = "left_to_right"
	RightToLeft = "right_to_left"
)

// link is the state shared by both directions of a Synchronizer.
// It is only touched from the goroutine driving the two selections.
type link struct {
	// applying is set while a change set is being replayed on a peer.
	applying bool

	// refreshing is set while a refresh is being forwarded to a peer.
	refreshing bool
}

// Synchronizer keeps two selections equal. Create it with Synchronize.
type Synchronizer struct {
	name    string
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	ctx     context.Context

	link link
	subs *reactive.Composite
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithName names the synchronizer in logs, metrics and spans.
func WithName(name string) Option {
	return func(s *Synchronizer) {
		s.name = name
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// WithMetrics records propagation statistics into m.
func WithMetrics(m *Metrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// WithTracer sets the tracer. Default: the global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Synchronizer) {
		s.tracer = tracer
	}
}

// WithContext sets the parent context of propagation spans.
func WithContext(ctx context.Context) Option {
	return func(s *Synchronizer) {
		s.ctx = ctx
	}
}

// Synchronize binds left and right so that every change on one side is
// replayed on the other.
//
// A change set from either side, the leader, makes the other side, the
// follower, update to the leader's full item list; a Refresh in the set
// also refreshes the follower. While such a replay runs, change sets from
// both sides are dropped, so the follower's own notifications never bounce
// back. Refresh signals are forwarded the same way with their own guard.
//
// Binding performs an initial sync along the same path: a non-empty left
// is pushed into right, otherwise a non-empty right is pushed into left.
func Synchronize[T comparable](left, right Selection[T], opts ...Option) *Synchronizer {
	s := &Synchronizer{
		name: "default",
		ctx:  context.Background(),
		subs: reactive.NewComposite(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "selsync", "sync", s.name)
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	toRight := bind(s, LeftToRight, left, right)
	toLeft := bind(s, RightToLeft, right, left)

	switch {
	case left.Count() > 0:
		toRight(initialSet(left.Items()))
	case right.Count() > 0:
		toLeft(initialSet(right.Items()))
	}
	return s
}

// Name returns the synchronizer's name.
func (s *Synchronizer) Name() string {
	return s.name
}

// Dispose releases both directions. The selections stay usable.
func (s *Synchronizer) Dispose() {
	s.subs.Dispose()
}

// IsDisposed reports whether Dispose has been called.
func (s *Synchronizer) IsDisposed() bool {
	return s.subs.IsDisposed()
}

// bind wires leader to follower and returns the guarded change handler.
func bind[T comparable](s *Synchronizer, dir string, leader, follower Selection[T]) func(change.Set[T]) {
	forward := func(cs change.Set[T]) {
		if s.link.applying {
			s.metrics.recordSuppressed(s.name, dir)
			s.logger.Debug("dropped change set during propagation", "direction", dir, "changes", cs)
			return
		}
		s.link.applying = true
		defer func() { s.link.applying = false }()

		s.propagate(dir, summarize(cs), func() error {
			return follower.Update(leader.Items()...)
		}, follower.Refresh)
	}

	s.subs.Add(leader.Connect(nil).Subscribe(forward))
	s.subs.Add(leader.OnRefresh().Subscribe(func(struct{}) {
		s.forwardRefresh(dir, follower.Refresh)
	}))
	return forward
}

// summary is the part of a change set the synchronizer reports on.
type summary struct {
	changes int
	refresh bool
	reasons map[change.Reason]int
}

func summarize[T any](cs change.Set[T]) summary {
	sum := summary{changes: len(cs), reasons: make(map[change.Reason]int, 2)}
	for _, c := range cs {
		sum.reasons[c.Reason]++
	}
	sum.refresh = sum.reasons[change.Refresh] > 0
	return sum
}

func (s *Synchronizer) propagate(dir string, sum summary, update func() error, refresh func()) {
	_, span := s.tracer.Start(s.ctx, "selsync.propagate",
		trace.WithAttributes(
			attribute.String("selsync.sync", s.name),
			attribute.String("selsync.direction", dir),
			attribute.Int("selsync.changes", sum.changes),
			attribute.Bool("selsync.refresh", sum.refresh),
		),
	)
	defer span.End()

	start := time.Now()
	s.metrics.recordChanges(s.name, sum.reasons)

	if err := update(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.recordUpdateError(s.name, dir)
		s.logger.Warn("peer update failed", "direction", dir, "error", err)
	}
	if sum.refresh {
		s.forwardRefresh(dir, refresh)
	}

	s.metrics.recordPropagation(s.name, dir, time.Since(start))
	s.logger.Debug("propagated change set", "direction", dir, "changes", sum.changes, "duration", time.Since(start))
}

func (s *Synchronizer) forwardRefresh(dir string, refresh func()) {
	if s.link.refreshing {
		return
	}
	s.link.refreshing = true
	defer func() { s.link.refreshing = false }()

	refresh()
	s.metrics.recordRefresh(s.name, dir)
	s.logger.Debug("forwarded refresh", "direction", dir)
}

func initialSet[T any](items []T) change.Set[T] {
	cs := make(change.Set[T], len(items))
	for i, item := range items {
		cs[i] = change.NewAdd(item, i)
	}
	return cs
}
