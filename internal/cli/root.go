// Package cli implements the binsim command line tool: measure catalog
// listing, one-off comparisons, matrix computation over NDJSON files and
// bulk imports into a fingerprint store.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "binsim",
		Short:        "Binary similarity and distance measures for bit fingerprints",
		SilenceUsage: true,
	}

	cmd.AddCommand(measuresCmd())
	cmd.AddCommand(compareCmd())
	cmd.AddCommand(matrixCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}
