package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"veil-hq/veil/pkg/cli"
	"veil-hq/veil/pkg/config"
	"veil-hq/veil/pkg/relay"
	"veil-hq/veil/pkg/storage"
	"veil-hq/veil/pkg/telemetry/logging"
	"veil-hq/veil/pkg/telemetry/metrics"
	"veil-hq/veil/pkg/webext/manifest"
	"veil-hq/veil/pkg/webext/registry"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	root          string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Veil extension engine",
	Long: `Start the Veil extension engine with the specified configuration.

The engine scans the extensions root, watches it for changes, and serves
the local relay that injected content scripts talk to.

Examples:
  # Start with default config
  veil run

  # Start with custom config
  veil run --config /etc/veil/veil.yaml

  # Override the extensions root
  veil run --root ~/my-extensions

  # Validate config without starting
  veil run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override relay listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.root, "root", "", "override extensions root directory")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

// loadEngineConfig loads the configuration according to the global --config
// flag, falling back to defaults plus environment overrides when no file is
// given.
func loadEngineConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfigWithEnvOverrides(cfgFile)
	}
	return config.FromEnvironment()
}

// openStore opens the configured browser store backend, creating the
// profile directory for the SQLite file when needed.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create profile directory: %w", err)
		}
		return storage.NewSQLiteStoreWithConfig(storage.SQLiteStoreConfig{
			DBPath:      cfg.Storage.Path,
			BusyTimeout: cfg.Storage.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Relay.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.root != "" {
		cfg.Extensions.Root = runFlags.root
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Veil %s\n", Version)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{Enabled: true}, nil)
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()

	loader := manifest.NewLoader(&manifest.LoaderConfig{
		MaxManifestSize: cfg.Extensions.MaxManifestSize,
		MaxSourceSize:   cfg.Extensions.MaxSourceSize,
	}, logger)
	reg := registry.NewRegistry(cfg.Extensions.Root, loader, store, logger, collector)

	ctx, cancel := context.WithCancel(cli.SetupSignalHandler())
	defer cancel()

	if err := reg.LoadAll(ctx, metrics.TriggerStartup); err != nil {
		// An unreadable root is not fatal: the engine starts empty and
		// picks extensions up on the next successful rescan.
		logger.Warn("initial extension scan failed", "error", err)
	}
	fmt.Printf("✓ Extensions loaded (%d loaded, %d enabled)\n", reg.Count(), reg.EnabledCount())

	if cfg.Extensions.Watch {
		watcher, err := registry.NewWatcher(&registry.WatcherConfig{
			Root:             cfg.Extensions.Root,
			DebounceInterval: cfg.Extensions.DebounceInterval,
			SkipHidden:       true,
		}, logger)
		if err != nil {
			logger.Warn("could not create extensions watcher", "error", err)
		} else {
			go func() {
				if err := watcher.Watch(ctx, func() error {
					return reg.LoadAll(ctx, metrics.TriggerWatcher)
				}); err != nil {
					logger.Error("extensions watcher exited", "error", err)
				}
			}()
			defer watcher.Stop()
			fmt.Println("✓ Watching extensions root for changes")
		}
	}

	if cfg.Extensions.RescanSchedule != "" {
		scheduler := registry.NewScheduler(reg, cfg.Extensions.RescanSchedule, logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Warn("could not start rescan scheduler", "error", err)
		} else {
			defer scheduler.Stop()
		}
	}

	srv := relay.NewServer(&cfg.Relay, store, reg, logger, collector)

	fmt.Printf("✓ Relay listening on %s\n", cfg.Relay.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until context cancellation or SIGINT/SIGTERM, then
	// shuts down gracefully.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Engine stopped")
	return nil
}
