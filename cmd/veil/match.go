package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veil-hq/veil/pkg/cli"
	"veil-hq/veil/pkg/webext/matcher"
)

var matchCmd = &cobra.Command{
	Use:   "match <pattern> <url>...",
	Short: "Check a match pattern against URLs",
	Long: `Evaluate a content-script match pattern against one or more URLs.

Useful when writing an extension manifest: it answers whether a given
matches entry would fire on a page.

Examples:
  veil match '<all_urls>' https://example.com/
  veil match '*://*.example.com/*' https://www.example.com/page http://other.test/`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	pattern := args[0]
	p := matcher.Parse(pattern)
	if p == nil {
		return cli.NewCommandError("match", fmt.Errorf("malformed match pattern %q", pattern))
	}

	anyMiss := false
	for _, rawURL := range args[1:] {
		if p.Matches(rawURL) {
			fmt.Printf("match    %s\n", rawURL)
		} else {
			fmt.Printf("no match %s\n", rawURL)
			anyMiss = true
		}
	}

	if anyMiss {
		// Nonzero exit lets scripts use the command as a predicate.
		cmd.SilenceUsage = true
		return fmt.Errorf("one or more URLs did not match")
	}
	return nil
}
