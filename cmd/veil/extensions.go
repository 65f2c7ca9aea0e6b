package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"veil-hq/veil/pkg/cli"
	"veil-hq/veil/pkg/config"
	"veil-hq/veil/pkg/storage"
	"veil-hq/veil/pkg/telemetry/metrics"
	"veil-hq/veil/pkg/webext/manifest"
	"veil-hq/veil/pkg/webext/registry"
)

var extensionsFlags struct {
	output string
}

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "Manage installed extensions",
	Long: `Inspect and manage the extensions installed in the extensions root.

These commands operate on the same store the running engine uses; enable
and disable take effect on the engine's next rescan.`,
}

var extensionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	RunE:  runExtensionsList,
}

var extensionsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtensionsSetEnabled(args[0], true)
	},
}

var extensionsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtensionsSetEnabled(args[0], false)
	},
}

var extensionsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an extension and its stored data",
	RunE:  runExtensionsRemove,
	Args:  cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(extensionsCmd)
	extensionsCmd.AddCommand(extensionsListCmd)
	extensionsCmd.AddCommand(extensionsEnableCmd)
	extensionsCmd.AddCommand(extensionsDisableCmd)
	extensionsCmd.AddCommand(extensionsRemoveCmd)

	extensionsListCmd.Flags().StringVarP(&extensionsFlags.output, "output", "o", "text", "output format (text, json)")
}

// quietLogger discards log output; management commands report through
// their exit status and printed results.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openEngineState loads the configuration, opens the store, and scans the
// extensions root into a registry.
func openEngineState() (*config.Config, storage.Store, *registry.Registry, error) {
	cfg, err := loadEngineConfig()
	if err != nil {
		return nil, nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := quietLogger()
	loader := manifest.NewLoader(&manifest.LoaderConfig{
		MaxManifestSize: cfg.Extensions.MaxManifestSize,
		MaxSourceSize:   cfg.Extensions.MaxSourceSize,
	}, logger)
	reg := registry.NewRegistry(cfg.Extensions.Root, loader, store, logger, nil)
	if err := reg.LoadAll(context.Background(), metrics.TriggerManual); err != nil {
		// Root may not exist yet; commands still work against the store.
		fmt.Fprintf(os.Stderr, "warning: could not scan extensions root: %v\n", err)
	}

	return cfg, store, reg, nil
}

func runExtensionsList(cmd *cobra.Command, args []string) error {
	_, store, reg, err := openEngineState()
	if err != nil {
		return err
	}
	defer store.Close()

	type row struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description,omitempty"`
		Enabled     bool   `json:"enabled"`
	}

	exts := reg.Extensions()
	rows := make([]row, 0, len(exts))
	for _, ext := range exts {
		rows = append(rows, row{
			ID:          ext.ID,
			Name:        ext.Manifest.Name,
			Version:     ext.Manifest.Version,
			Description: ext.Manifest.Description,
			Enabled:     ext.Enabled,
		})
	}

	if cli.OutputFormat(extensionsFlags.output) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rows)
	}

	if len(rows) == 0 {
		fmt.Println("No extensions installed.")
		return nil
	}
	for _, r := range rows {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		fmt.Printf("%-24s %-10s %-8s %s\n", r.ID, r.Version, state, r.Name)
	}
	return nil
}

func runExtensionsSetEnabled(id string, enabled bool) error {
	_, store, reg, err := openEngineState()
	if err != nil {
		return err
	}
	defer store.Close()

	if _, ok := reg.Get(id); !ok {
		fmt.Fprintf(os.Stderr, "warning: extension %q is not currently installed; flag persisted anyway\n", id)
	}

	if err := reg.SetEnabled(context.Background(), id, enabled); err != nil {
		return cli.NewCommandError("extensions", err)
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("✓ Extension %s %s\n", id, state)
	return nil
}

func runExtensionsRemove(cmd *cobra.Command, args []string) error {
	id := args[0]

	_, store, reg, err := openEngineState()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := reg.RemoveExtension(context.Background(), id); err != nil {
		return cli.NewCommandError("extensions", err)
	}

	fmt.Printf("✓ Extension %s removed\n", id)
	return nil
}
