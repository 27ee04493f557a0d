// =============================================================================
// CSV Parser - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (csv-parser)
//   ├── processCmd  (csv-parser process)
//   ├── validateCmd (csv-parser validate)
//   ├── historyCmd  (csv-parser history)
//   └── versionCmd  (csv-parser version)
//
// The root command owns the global flags (--config, --verbose) and the
// setup shared by the subcommands: settings loading and logger creation.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/logging"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// cfgFile holds the path to the settings file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "csv-parser",
	Short: "Validate a sales CSV export and report its statistics",
	Long: `csv-parser reads a delimited sales export line by line, validates every
row against the configured rules and writes a report with totals and
per-category and per-country statistics.

Example Usage:
  csv-parser process                         # Process paths.input_file
  csv-parser process --file ./data/may.csv   # Process another file
  csv-parser process --format json,xlsx      # Write two report formats
  csv-parser validate --file ./data/may.csv  # Only report invalid rows
  csv-parser history --limit 10              # List the last ten runs`,

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). An interrupt cancels
// the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setup loads the settings and builds the logger of a command.
func setup() (*config.Settings, *zap.Logger, error) {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := logging.New(settings.Logging(), verbose)
	if err != nil {
		return nil, nil, err
	}

	log.Debug("settings loaded", zap.String("config", cfgFile))
	return settings, log, nil
}

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the settings file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
