package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veil-hq/veil/pkg/cli"
	"veil-hq/veil/pkg/webext/injector"
)

var composeCmd = &cobra.Command{
	Use:   "compose <url>",
	Short: "Print the injection script for a URL",
	Long: `Compose the content-script injection for a navigation URL and print it.

This is the exact script the engine hands to the page: the API polyfill,
then the CSS of every matching rule, then the JS. Useful for debugging
which extensions fire on a page and what they inject.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	_, store, reg, err := openEngineState()
	if err != nil {
		return err
	}
	defer store.Close()

	composer := injector.NewComposer(reg, quietLogger(), nil)
	script, ok := composer.BuildInjectionScriptForURL(args[0])
	if !ok {
		cmd.SilenceUsage = true
		fmt.Fprintln(os.Stderr, "no content script matches this URL")
		return cli.NewCommandError("compose", fmt.Errorf("no injection for %s", args[0]))
	}

	fmt.Print(script)
	return nil
}
