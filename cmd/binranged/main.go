// Package main provides the entry point for the binranged server and its
// seeding tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "binranged",
		Short: "binranged - card range (BIN) lookup service",
		Long: `binranged serves PAN-to-card-range lookups over an in-memory
interval tree.

Commands:
  serve     Run the HTTP API
  seed      Generate a PRes seed document and write it to a blob store`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "binranged %s\n", version)
		},
	}
}
