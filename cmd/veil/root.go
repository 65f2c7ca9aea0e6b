package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "veil",
	Short: "Veil - WebExtension engine for the Veil browser",
	Long: `Veil is the WebExtension engine of the Veil privacy browser.

It loads Chrome Manifest V3 extensions from a directory, matches their
content-script rules against navigation URLs, composes injection scripts,
and serves the local relay backing the veil: scheme:
  - Extension discovery with hot reload and scheduled rescans
  - URL match pattern evaluation (<all_urls>, scheme/host/path wildcards)
  - chrome.storage.local persistence in the browser store
  - Extension management (list, enable, disable, remove)`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
