// =============================================================================
// CSV Parser - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline on
// one input file.
//
// COMMAND USAGE:
//   csv-parser process [flags]
//
// FLAGS:
//   --file        : Input file (default: paths.input_file)
//   --output-dir  : Results directory (default: paths.results_dir)
//   --format      : Report format(s): json, xml, xlsx (default: paths.output_formats)
//   --dry-run     : Parse, validate and aggregate without writing anything
//
// EXIT STATUS:
//   0 when the run completed, even with invalid rows.
//   1 on a fatal error (missing file, empty input, invalid header).
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/history"
	"github.com/Maksym-Tokariev/csv-parser/internal/pipeline"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// filePath overrides paths.input_file.
	filePath string

	// outputDir overrides paths.results_dir.
	outputDir string

	// formats overrides paths.output_formats.
	formats []string

	// dryRun disables every write of the run.
	dryRun bool
)

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a CSV file and write its report",
	Long: `The process command parses the input file, validates every row, aggregates
the valid rows and writes the report to the results directory.

Invalid rows are logged and skipped; they never stop the run. A missing file,
an empty file or a header without the expected columns stops the run.

On success:
  - The report is written in every configured format
  - An error log is written when paths.error_log is set
  - The input is moved to paths.archive_dir when it is set
  - The run is recorded in paths.history_db when it is set`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&filePath, "file", "f", "", "Input file (default: paths.input_file)")
	processCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Results directory (default: paths.results_dir)")
	processCmd.Flags().StringSliceVar(&formats, "format", nil, "Report formats: json, xml, xlsx")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run without writing any file")
}

// runProcess executes the process command.
func runProcess(cmd *cobra.Command) (err error) {
	settings, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	settings, err = applyPathOverrides(settings)
	if err != nil {
		return err
	}
	paths := settings.Paths()

	var store *history.Store
	if paths.HistoryDB != "" && !dryRun {
		store, err = history.Open(cmd.Context(), log.Named("history"), paths.HistoryDB)
		if err != nil {
			return err
		}
		defer func() { err = errs.Combine(err, store.Close()) }()
	}

	p := pipeline.New(log.Named("pipeline"), settings, store)
	result := p.Run(cmd.Context(), paths.InputFile, pipeline.Options{DryRun: dryRun})
	if !result.Success {
		return result.Error
	}

	printResult(result)
	return nil
}

// applyPathOverrides applies the command line flags to the paths section.
func applyPathOverrides(settings *config.Settings) (*config.Settings, error) {
	paths := settings.Paths()
	changed := false

	if filePath != "" {
		paths.InputFile = filePath
		changed = true
	}
	if outputDir != "" {
		paths.ResultsDir = outputDir
		changed = true
	}
	if len(formats) > 0 {
		paths.OutputFormats = formats
		changed = true
	}

	if !changed {
		return settings, nil
	}
	return settings.WithPaths(paths)
}

// printResult prints the summary of a completed run.
func printResult(result pipeline.Result) {
	rep := result.Report
	stat := rep.Stat

	fmt.Fprintf(os.Stdout, "Run:           %s\n", result.RunID)
	fmt.Fprintf(os.Stdout, "Input:         %s\n", result.InputFile)
	fmt.Fprintf(os.Stdout, "Total lines:   %d\n", rep.TotalLines)
	fmt.Fprintf(os.Stdout, "Valid lines:   %d\n", rep.ValidLines)
	fmt.Fprintf(os.Stdout, "Invalid lines: %d\n", rep.InvalidLines)
	fmt.Fprintf(os.Stdout, "Total items:   %d\n", stat.TotalItems)
	fmt.Fprintf(os.Stdout, "Total revenue: %s\n", stat.TotalRevenue.StringFixed(stat.FractionDigits))
	for _, dim := range stat.Dimensions {
		fmt.Fprintf(os.Stdout, "%-15s%d\n", dim.Name+":", dim.Count)
	}
	for _, output := range result.Outputs {
		fmt.Fprintf(os.Stdout, "Report:        %s\n", output)
	}
	if result.ErrorLog != "" {
		fmt.Fprintf(os.Stdout, "Error log:     %s\n", result.ErrorLog)
	}
	if result.ArchivePath != "" {
		fmt.Fprintf(os.Stdout, "Archived to:   %s\n", result.ArchivePath)
	}
	fmt.Fprintf(os.Stdout, "Elapsed:       %s\n", result.ProcessingTime)
}
