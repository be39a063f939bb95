package remote

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/host"
	"github.com/vango-dev/selsync/pkg/selection"
)

// releaseTimeout bounds the wait for the loop when a client leaves.
const releaseTimeout = 5 * time.Second

// Hub accepts websocket clients and binds each one to the model selection.
type Hub struct {
	model    selection.Selection[string]
	loop     *dispatch.Loop
	options  []string
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *selection.Metrics
	clients  prometheus.Gauge

	mu       sync.RWMutex
	sessions map[string]*Control
}

// HubOption configures a Hub.
type HubOption func(*hubConfig)

type hubConfig struct {
	logger      *slog.Logger
	registry    prometheus.Registerer
	metrics     *selection.Metrics
	options     []string
	checkOrigin func(*http.Request) bool
}

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) HubOption {
	return func(c *hubConfig) {
		c.logger = logger
	}
}

// WithRegistry registers the connected-clients gauge with reg.
// Default: prometheus.DefaultRegisterer
func WithRegistry(reg prometheus.Registerer) HubOption {
	return func(c *hubConfig) {
		c.registry = reg
	}
}

// WithSyncMetrics records the per-client synchronizers into m.
func WithSyncMetrics(m *selection.Metrics) HubOption {
	return func(c *hubConfig) {
		c.metrics = m
	}
}

// WithOptions sets the items clients may select. An empty list accepts
// any item.
func WithOptions(options []string) HubOption {
	return func(c *hubConfig) {
		c.options = slices.Clone(options)
	}
}

// WithCheckOrigin sets the upgrader's origin check. Default: allow all.
func WithCheckOrigin(fn func(*http.Request) bool) HubOption {
	return func(c *hubConfig) {
		c.checkOrigin = fn
	}
}

// NewHub creates a hub bound to model. Selections are only touched on loop.
func NewHub(model selection.Selection[string], loop *dispatch.Loop, opts ...HubOption) *Hub {
	cfg := hubConfig{
		logger:      slog.Default(),
		registry:    prometheus.DefaultRegisterer,
		checkOrigin: func(*http.Request) bool { return true },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Hub{
		model:   model,
		loop:    loop,
		options: cfg.options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.checkOrigin,
		},
		logger:  cfg.logger.With("component", "remote"),
		metrics: cfg.metrics,
		clients: promauto.With(cfg.registry).NewGauge(prometheus.GaugeOpts{
			Namespace: "selsync",
			Subsystem: "remote",
			Name:      "connected_clients",
			Help:      "Number of connected websocket clients",
		}),
		sessions: make(map[string]*Control),
	}
}

// ServeHTTP upgrades the connection and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctrl := newControl(uuid.NewString(), conn, h.loop, h.options, h.logger)
	ctx := r.Context()

	var binding *host.Binding[string]
	err = h.loop.Call(ctx, func() error {
		if err := ctrl.hello(h.model.Items()); err != nil {
			return err
		}
		b, err := host.Bind[string](ctrl, h.model, h.syncOptions(ctx, ctrl.ID())...)
		binding = b
		return err
	})
	if err != nil {
		h.logger.Warn("session setup failed", "error", err)
		return
	}

	h.add(ctrl)
	h.logger.Info("client connected", "session_id", ctrl.ID())

	err = ctrl.readLoop(ctx)

	ctrl.leave()
	h.remove(ctrl)
	h.logger.Info("client disconnected", "session_id", ctrl.ID(), "reason", err)
	h.release(ctrl.ID(), binding)
}

// release disposes a session's binding on the loop. The request context is
// done by now, so the call gets its own deadline. Once the loop has stopped
// nothing else touches the model and the binding is disposed in place.
func (h *Hub) release(id string, binding *host.Binding[string]) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	err := h.loop.Call(ctx, func() error {
		binding.Dispose()
		return nil
	})
	if err == nil {
		return
	}

	select {
	case <-h.loop.Done():
		binding.Dispose()
		h.logger.Debug("released binding off loop", "session_id", id)
	default:
		h.logger.Warn("release binding failed", "session_id", id, "error", err)
	}
}

func (h *Hub) syncOptions(ctx context.Context, id string) []selection.Option {
	return []selection.Option{
		selection.WithName("ws:" + id),
		selection.WithLogger(h.logger),
		selection.WithMetrics(h.metrics),
		selection.WithContext(ctx),
	}
}

func (h *Hub) add(c *Control) {
	h.mu.Lock()
	h.sessions[c.ID()] = c
	h.mu.Unlock()
	h.clients.Inc()
}

func (h *Hub) remove(c *Control) {
	h.mu.Lock()
	delete(h.sessions, c.ID())
	h.mu.Unlock()
	h.clients.Dec()
}

// Sessions returns the ids of connected clients.
func (h *Hub) Sessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.sessions {
		c.conn.Close()
	}
}
