package selection

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/selsync/pkg/change"
)

// MetricsConfig configures synchronizer metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "selsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "sync").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for propagation duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures synchronizer metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "selsync",
		Subsystem: "sync",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects synchronizer statistics. One Metrics is shared by every
// synchronizer of a process; series are labelled by synchronizer name and
// direction.
type Metrics struct {
	propagations *prometheus.CounterVec
	suppressed   *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	updateErrors *prometheus.CounterVec
	changes      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewMetrics registers the synchronizer collectors.
//
// Metrics collected:
//   - selsync_sync_propagations_total: change sets replayed on the peer
//   - selsync_sync_suppressed_total: change sets dropped while propagating
//   - selsync_sync_refreshes_total: refreshes forwarded to the peer
//   - selsync_sync_update_errors_total: failed peer updates
//   - selsync_sync_changes_total: incoming changes by reason
//   - selsync_sync_propagation_duration_seconds: time spent per propagation
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		propagations: counter("propagations_total", "Change sets replayed on the peer selection", "name", "direction"),
		suppressed:   counter("suppressed_total", "Change sets dropped because a propagation was in progress", "name", "direction"),
		refreshes:    counter("refreshes_total", "Refreshes forwarded to the peer selection", "name", "direction"),
		updateErrors: counter("update_errors_total", "Peer updates that returned an error", "name", "direction"),
		changes:      counter("changes_total", "Changes received from a leader selection", "name", "reason"),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_duration_seconds",
			Help:        "Time spent replaying a change set on the peer selection",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"name", "direction"}),
	}
}

// The recording methods accept a nil receiver so call sites need no checks.

func (m *Metrics) recordChanges(name string, counts map[change.Reason]int) {
	if m == nil {
		return
	}
	for reason, n := range counts {
		m.changes.WithLabelValues(name, reason.String()).Add(float64(n))
	}
}

func (m *Metrics) recordPropagation(name, dir string, d time.Duration) {
	if m == nil {
		return
	}
	m.propagations.WithLabelValues(name, dir).Inc()
	m.duration.WithLabelValues(name, dir).Observe(d.Seconds())
}

func (m *Metrics) recordSuppressed(name, dir string) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(name, dir).Inc()
}

func (m *Metrics) recordRefresh(name, dir string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(name, dir).Inc()
}

func (m *Metrics) recordUpdateError(name, dir string) {
	if m == nil {
		return
	}
	m.updateErrors.WithLabelValues(name, dir).Inc()
}
