// =============================================================================
// CSV Parser - Main Entry Point
// =============================================================================
//
// USAGE:
//   csv-parser process    - Validate a CSV file and write its report
//   csv-parser validate   - Validate a CSV file without writing anything
//   csv-parser history    - List recorded runs
//   csv-parser version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : settings, parsing, validation, aggregation, reports
//   - pkg/       : file management utilities
//
// =============================================================================

package main

import (
	"github.com/Maksym-Tokariev/csv-parser/cmd"
)

func main() {
	cmd.Execute()
}
