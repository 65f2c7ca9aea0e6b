package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is unmarshalled over the default configuration, so omitted
// fields keep their defaults. The result is validated before returning.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention VEIL_SECTION_FIELD (e.g., VEIL_RELAY_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// FromEnvironment returns the default configuration with environment
// variable overrides applied. It is the loading path when no configuration
// file is given.
func FromEnvironment() (*Config, error) {
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies VEIL_SECTION_FIELD environment variables.
func applyEnvOverrides(cfg *Config) {
	// Extensions overrides
	if val := os.Getenv("VEIL_EXTENSIONS_ROOT"); val != "" {
		cfg.Extensions.Root = val
	}
	if val := os.Getenv("VEIL_EXTENSIONS_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Extensions.Watch = b
		}
	}
	if val := os.Getenv("VEIL_EXTENSIONS_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Extensions.DebounceInterval = d
		}
	}
	if val := os.Getenv("VEIL_EXTENSIONS_RESCAN_SCHEDULE"); val != "" {
		cfg.Extensions.RescanSchedule = val
	}
	if val := os.Getenv("VEIL_EXTENSIONS_MAX_MANIFEST_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Extensions.MaxManifestSize = i
		}
	}
	if val := os.Getenv("VEIL_EXTENSIONS_MAX_SOURCE_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Extensions.MaxSourceSize = i
		}
	}

	// Storage overrides
	if val := os.Getenv("VEIL_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("VEIL_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}
	if val := os.Getenv("VEIL_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}

	// Relay overrides
	if val := os.Getenv("VEIL_RELAY_LISTEN_ADDRESS"); val != "" {
		cfg.Relay.ListenAddress = val
	}
	if val := os.Getenv("VEIL_RELAY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Relay.ReadTimeout = d
		}
	}
	if val := os.Getenv("VEIL_RELAY_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Relay.WriteTimeout = d
		}
	}
	if val := os.Getenv("VEIL_RELAY_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Relay.IdleTimeout = d
		}
	}
	if val := os.Getenv("VEIL_RELAY_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Relay.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("VEIL_RELAY_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Relay.MaxHeaderBytes = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("VEIL_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VEIL_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VEIL_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("VEIL_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
