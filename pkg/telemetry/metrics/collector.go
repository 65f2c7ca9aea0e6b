package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Rescan trigger labels recorded on the rescan counter.
const (
	TriggerStartup  = "startup"
	TriggerWatcher  = "watcher"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Collector owns the Prometheus metrics for the extension engine:
// registry state, rescan activity, and injection composition. It is safe
// for concurrent use; all underlying metric types are.
//
// A nil *Collector is valid and records nothing, so components can take a
// collector without caring whether metrics are enabled.
type Collector struct {
	registry *prometheus.Registry

	extensionsLoaded  prometheus.Gauge
	extensionsEnabled prometheus.Gauge
	rescans           *prometheus.CounterVec
	loadErrors        prometheus.Counter
	injections        prometheus.Counter
	injectionBytes    prometheus.Histogram
}

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled controls whether metrics are collected at all.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix. Default: "veil".
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem. Default: "webext".
	Subsystem string `yaml:"subsystem"`
}

// NewCollector creates a metrics collector registered on the given
// Prometheus registry. If registry is nil, a fresh registry is used.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "veil"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "webext"
	}

	c := &Collector{
		registry: registry,

		extensionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "extensions_loaded",
			Help:      "Number of extensions currently in the registry.",
		}),
		extensionsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "extensions_enabled",
			Help:      "Number of enabled extensions currently in the registry.",
		}),
		rescans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rescans_total",
			Help:      "Full rescans of the extensions directory, by trigger.",
		}, []string{"trigger"}),
		loadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "load_errors_total",
			Help:      "Extensions skipped during rescans because of manifest errors.",
		}),
		injections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "injections_total",
			Help:      "Composed injection scripts handed to the embedding engine.",
		}),
		injectionBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "injection_bytes",
			Help:      "Size in bytes of composed injection scripts.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}

	registry.MustRegister(
		c.extensionsLoaded,
		c.extensionsEnabled,
		c.rescans,
		c.loadErrors,
		c.injections,
		c.injectionBytes,
	)

	return c
}

// RecordRescan records one full rescan and the registry state it produced.
func (c *Collector) RecordRescan(trigger string, loaded, enabled, loadErrors int) {
	if c == nil {
		return
	}
	c.rescans.WithLabelValues(trigger).Inc()
	c.extensionsLoaded.Set(float64(loaded))
	c.extensionsEnabled.Set(float64(enabled))
	c.loadErrors.Add(float64(loadErrors))
}

// SetEnabledCount updates the enabled-extensions gauge outside a rescan
// (after SetEnabled or RemoveExtension).
func (c *Collector) SetEnabledCount(enabled int) {
	if c == nil {
		return
	}
	c.extensionsEnabled.Set(float64(enabled))
}

// SetLoadedCount updates the loaded-extensions gauge outside a rescan.
func (c *Collector) SetLoadedCount(loaded int) {
	if c == nil {
		return
	}
	c.extensionsLoaded.Set(float64(loaded))
}

// RecordInjection records one composed injection script of the given size.
func (c *Collector) RecordInjection(sizeBytes int) {
	if c == nil {
		return
	}
	c.injections.Inc()
	c.injectionBytes.Observe(float64(sizeBytes))
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
