package config

import "time"

// Config is the root configuration structure for the Veil extension engine.
type Config struct {
	// Extensions configures where extensions live on disk and how the
	// engine rescans them.
	Extensions ExtensionsConfig `yaml:"extensions"`

	// Storage configures the persisted browser store backing the enabled
	// flags and chrome.storage.local areas.
	Storage StorageConfig `yaml:"storage"`

	// Relay configures the local HTTP endpoint behind the veil: scheme.
	Relay RelayConfig `yaml:"relay"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ExtensionsConfig configures the on-disk extensions root and rescanning.
type ExtensionsConfig struct {
	// Root is the directory whose immediate subdirectories are treated as
	// installed extensions. Default: <user config dir>/veil/extensions.
	Root string `yaml:"root"`

	// Watch enables filesystem watching of the root; any change triggers
	// a debounced full rescan.
	// Default: true
	Watch bool `yaml:"watch"`

	// DebounceInterval is how long the watcher waits after the last
	// filesystem event before rescanning.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// RescanSchedule is an optional cron expression for periodic full
	// rescans, independent of the watcher. Empty disables scheduling.
	RescanSchedule string `yaml:"rescan_schedule"`

	// MaxManifestSize is the maximum manifest.json size in bytes.
	// Default: 1048576 (1 MiB)
	MaxManifestSize int64 `yaml:"max_manifest_size"`

	// MaxSourceSize is the maximum size in bytes of a single declared
	// js/css file. Larger files are treated as unreadable.
	// Default: 10485760 (10 MiB)
	MaxSourceSize int64 `yaml:"max_source_size"`
}

// StorageConfig configures the persisted browser store.
type StorageConfig struct {
	// Backend selects the store implementation: "sqlite" or "memory".
	// The memory backend loses all state on exit and exists for tests
	// and ephemeral profiles.
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Ignored by the memory backend.
	// Default: <user config dir>/veil/browser.db
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RelayConfig configures the local HTTP relay listener.
type RelayConfig struct {
	// ListenAddress is the address and port the relay binds. The relay
	// serves browser-internal traffic and should stay on loopback.
	// Default: "127.0.0.1:8377"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading an entire request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before forcing connections closed.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1 MiB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether the relay mounts the metrics route.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics route on the relay.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
