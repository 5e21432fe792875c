// Package main provides the erd CLI. erd runs JavaScript model scripts
// against the in-memory modeling engine and exports the result as SQL DDL.
//
// Usage:
//
//	erd init                     # Create erd.yaml and model.js
//	erd run model.js             # Run a model script, write database.sql
//	erd run model.js --watch     # Re-run on every save
//	erd history model.js         # Show the undo history a script produced
//	erd meta model.js            # Export table metadata as JSON
//	erd version                  # Show version information
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hlop3z/erdlab/internal/cli"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var (
	configFile string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "erd",
		Short:         "Entity-relationship modeling from scripts",
		Long:          `erd builds entity-relationship models from JavaScript model scripts and emits CREATE TABLE statements for them.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", DefaultConfigFile, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, disabled)")

	rootCmd.AddCommand(
		initCmd(),
		runCmd(),
		historyCmd(),
		metaCmd(),
		versionCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
