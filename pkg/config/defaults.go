package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	// Extensions defaults
	DefaultExtensionsWatch   = true
	DefaultDebounceInterval  = 250 * time.Millisecond
	DefaultMaxManifestSize   = int64(1 << 20)  // 1 MiB
	DefaultMaxSourceSize     = int64(10 << 20) // 10 MiB

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultStorageBusyTimeout = 5 * time.Second

	// Relay defaults
	DefaultRelayListenAddress   = "127.0.0.1:8377"
	DefaultRelayReadTimeout     = 10 * time.Second
	DefaultRelayWriteTimeout    = 10 * time.Second
	DefaultRelayIdleTimeout     = 120 * time.Second
	DefaultRelayShutdownTimeout = 10 * time.Second
	DefaultRelayMaxHeaderBytes  = 1 << 20

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// DefaultConfig returns a configuration with every field set to its
// default value. Loading unmarshals YAML over this value, so boolean
// fields that default to true stay true unless the file sets them false.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Extensions.Watch = DefaultExtensionsWatch
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for unset non-boolean fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Extensions.Root == "" {
		cfg.Extensions.Root = defaultProfilePath("extensions")
	}
	if cfg.Extensions.DebounceInterval == 0 {
		cfg.Extensions.DebounceInterval = DefaultDebounceInterval
	}
	if cfg.Extensions.MaxManifestSize == 0 {
		cfg.Extensions.MaxManifestSize = DefaultMaxManifestSize
	}
	if cfg.Extensions.MaxSourceSize == 0 {
		cfg.Extensions.MaxSourceSize = DefaultMaxSourceSize
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultProfilePath("browser.db")
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	if cfg.Relay.ListenAddress == "" {
		cfg.Relay.ListenAddress = DefaultRelayListenAddress
	}
	if cfg.Relay.ReadTimeout == 0 {
		cfg.Relay.ReadTimeout = DefaultRelayReadTimeout
	}
	if cfg.Relay.WriteTimeout == 0 {
		cfg.Relay.WriteTimeout = DefaultRelayWriteTimeout
	}
	if cfg.Relay.IdleTimeout == 0 {
		cfg.Relay.IdleTimeout = DefaultRelayIdleTimeout
	}
	if cfg.Relay.ShutdownTimeout == 0 {
		cfg.Relay.ShutdownTimeout = DefaultRelayShutdownTimeout
	}
	if cfg.Relay.MaxHeaderBytes == 0 {
		cfg.Relay.MaxHeaderBytes = DefaultRelayMaxHeaderBytes
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// defaultProfilePath resolves a file inside the per-user veil profile
// directory, falling back to the working directory when the platform
// config directory cannot be determined.
func defaultProfilePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "veil", name)
	}
	return filepath.Join(dir, "veil", name)
}
