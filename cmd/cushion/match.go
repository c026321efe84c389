package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion"
)

var matchCmd = &cobra.Command{
	Use:   "match <url>...",
	Short: "Show which cushion governs each URL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCushion(zap.NewNop())
		if err != nil {
			return err
		}

		showFields, _ := cmd.Flags().GetBool("fields")

		out := cmd.OutOrStdout()
		for _, rawURL := range args {
			rule, pattern, ok := c.Lookup(rawURL)
			if !ok {
				fmt.Fprintf(out, "%s\t-\n", rawURL)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", rawURL, pattern)
			if showFields {
				printFields(out, "", rule.Mapping)
				printFields(out, "fallback ", rule.Fallback)
			}
		}
		return nil
	},
}

func setupMatchCmd() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Bool("fields", false, "also print the field instructions of the matching cushion")
}

func printFields(out io.Writer, prefix string, m cushion.Mapping) {
	for _, key := range m.Keys() {
		fmt.Fprintf(out, "  %s%s\t%s\n", prefix, key, m[key])
	}
}
