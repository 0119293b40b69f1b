// Package main provides reportctl, a command line front end for the sell-out
// report catalogue. It reads either a CSV snapshot directory or the
// configured database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sellout/backend/cmd/reportctl/commands"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	src := &commands.SourceOptions{}

	rootCmd := &cobra.Command{
		Use:   "reportctl",
		Short: "Generate sell-out reports from the command line",
		Long: `reportctl renders the sell-out report catalogue without the HTTP server.

Commands:
  types     List the available report types
  generate  Render one report as a table, CSV or JSON`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	src.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(commands.NewTypesCommand(src))
	rootCmd.AddCommand(commands.NewGenerateCommand(src))
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
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reportctl %s\n", version)
		},
	}
}
