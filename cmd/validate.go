package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Maksym-Tokariev/csv-parser/internal/pipeline"
	"github.com/Maksym-Tokariev/csv-parser/internal/validation"
)

// validateFile overrides paths.input_file for the validate command.
var validateFile string

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a CSV file without writing a report",
	Long: `The validate command parses and validates the input file and prints the
line counters and every validation error. Nothing is written, archived or
recorded.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		settings, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		input := settings.Paths().InputFile
		if validateFile != "" {
			input = validateFile
		}

		result := pipeline.New(log.Named("pipeline"), settings, nil).
			Run(cmd.Context(), input, pipeline.Options{DryRun: true})
		if !result.Success {
			return result.Error
		}

		rep := result.Report
		fmt.Fprintf(os.Stdout, "Total lines:   %d\n", rep.TotalLines)
		fmt.Fprintf(os.Stdout, "Valid lines:   %d\n", rep.ValidLines)
		fmt.Fprintf(os.Stdout, "Invalid lines: %d\n", rep.InvalidLines)
		fmt.Fprintln(os.Stdout)
		fmt.Fprint(os.Stdout, validation.FormatErrors(result.Errors))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Input file (default: paths.input_file)")
}
