// Package config defines the Veil extension engine configuration and its
// loading pipeline: YAML file, defaults, environment overrides, validation.
//
// Loading unmarshals the file over the default configuration, so omitted
// fields keep their defaults. Environment variables of the form
// VEIL_SECTION_FIELD (e.g. VEIL_RELAY_LISTEN_ADDRESS) take precedence over
// the file. Validation collects every field error before failing, so a
// broken file reports all its problems at once.
//
// Example configuration:
//
//	extensions:
//	  root: ~/.config/veil/extensions
//	  watch: true
//	  rescan_schedule: "0 * * * *"
//	storage:
//	  backend: sqlite
//	  path: ~/.config/veil/browser.db
//	relay:
//	  listen_address: 127.0.0.1:8377
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
package config
