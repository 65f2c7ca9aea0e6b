// Package metrics provides Prometheus instrumentation for the extension
// engine: registry gauges (loaded, enabled), rescan and load-error
// counters, and injection composition counters and sizes.
//
// The Collector is nil-safe: every recording method on a nil *Collector is
// a no-op, so callers never branch on whether metrics are enabled.
package metrics
