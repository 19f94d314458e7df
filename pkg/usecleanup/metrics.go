package usecleanup

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "usecleanup").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
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

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "usecleanup",
		Subsystem:   "",
		ConstLabels: nil,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the package.
type metrics struct {
	invocationsTotal prometheus.Counter
	cleanupsFired    *prometheus.CounterVec
	cleanupsDropped  prometheus.Counter
	liveCallbacks    prometheus.Gauge
}

// globalMetrics is the singleton metrics instance.
// nil until EnableMetrics is called; all recording is nil-guarded so
// the hot path costs a single pointer check when metrics are off.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		invocationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invocations_total",
			Help:        "Total number of cleanup callback invocations",
			ConstLabels: config.ConstLabels,
		}),

		cleanupsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cleanups_fired_total",
			Help:        "Total number of cleanups fired, by trigger (call, deps_change, unmount)",
			ConstLabels: config.ConstLabels,
		}, []string{"trigger"}),

		cleanupsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cleanups_dropped_total",
			Help:        "Total number of pending cleanups replaced without firing",
			ConstLabels: config.ConstLabels,
		}),

		liveCallbacks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_callbacks",
			Help:        "Number of hook-managed callback instances not yet torn down",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// EnableMetrics turns on Prometheus instrumentation for all cleanup
// callbacks in the process.
//
// Metrics collected:
//   - usecleanup_invocations_total: Counter of Invoke calls
//   - usecleanup_cleanups_fired_total: Counter of fired cleanups by trigger
//   - usecleanup_cleanups_dropped_total: Counter of cleanups replaced unfired
//   - usecleanup_live_callbacks: Gauge of hook-managed callbacks alive
//
// Example:
//
//	usecleanup.EnableMetrics(
//	    usecleanup.WithNamespace("myapp"),
//	)
//	http.Handle("/metrics", promhttp.Handler())
//
// Calling EnableMetrics more than once keeps the first configuration.
func EnableMetrics(opts ...MetricsOption) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	globalMetricsMu.Unlock()
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// recordInvocation records one Invoke call.
func recordInvocation() {
	if globalMetrics != nil {
		globalMetrics.invocationsTotal.Inc()
	}
}

// recordCleanupFired records a cleanup run by the given trigger.
func recordCleanupFired(trigger string) {
	if globalMetrics != nil {
		globalMetrics.cleanupsFired.WithLabelValues(trigger).Inc()
	}
}

// recordCleanupDropped records a pending cleanup replaced without firing.
func recordCleanupDropped() {
	if globalMetrics != nil {
		globalMetrics.cleanupsDropped.Inc()
	}
}

// recordCallbackLive adjusts the live callback gauge.
func recordCallbackLive(delta int) {
	if globalMetrics != nil {
		globalMetrics.liveCallbacks.Add(float64(delta))
	}
}
