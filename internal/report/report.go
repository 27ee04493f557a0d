// =============================================================================
// CSV Parser - Report Module
// =============================================================================
//
// This module assembles the run report and encodes it for the results
// directory.
//
// SUPPORTED FORMATS:
//   - json: the report document, keys in fixed order, stats keys sorted
//   - xml:  the same document as an indented XML tree
//   - xlsx: a workbook with a summary sheet and one sheet per dimension
//
// JSON LAYOUT:
//   {
//     "totalLines": 3, "validLines": 2, "invalidLines": 1, "skippedRows": 1,
//     "stat": {
//       "totalItems": 5, "totalRevenue": 52.50,
//       "categoriesCount": 2, "countriesCount": 1,
//       "categoriesStats": {"items": {...}, "revenue": {...}, "avgPrice": {...}},
//       "countriesStats":  {...}
//     }
//   }
//
// =============================================================================

package report

import (
	"os"
	"path/filepath"

	"github.com/zeebo/errs"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/types"
)

// Error is the error class for report encoding and writing failures.
var Error = errs.Class("report")

// Assemble combines the parse counters and the statistics into a report.
func Assemble(parse *types.ParseResult, stat types.StatData) types.Report {
	rep := types.Report{Stat: stat}
	if parse != nil {
		rep.TotalLines = parse.TotalLines
		rep.ValidLines = parse.ValidLines
		rep.InvalidLines = parse.InvalidLines
		rep.SkippedRows = parse.InvalidLines
	}
	return rep
}

// Extension returns the file extension of a format.
func Extension(format string) string {
	return "." + format
}

// Encode renders a report in one of the supported formats.
func Encode(format string, rep types.Report) ([]byte, error) {
	switch format {
	case config.FormatJSON:
		return EncodeJSON(rep)
	case config.FormatXML:
		return EncodeXML(rep)
	case config.FormatXLSX:
		return EncodeXLSX(rep)
	default:
		return nil, Error.New("unsupported format %q", format)
	}
}

// WriteFile encodes a report and writes it to path.
//
// PARAMETERS:
//   - path: The output file. Its directory must exist.
//   - format: One of the supported formats.
//   - rep: The report.
//
// RETURNS:
//   - An error if encoding or writing fails.
func WriteFile(path, format string, rep types.Report) error {
	data, err := Encode(format, rep)
	if err != nil {
		return err
	}

	// Write to a temporary file first so a failed run never leaves a
	// truncated report behind.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		return errs.Combine(Error.Wrap(err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return Error.Wrap(err)
	}

	return Error.Wrap(os.Rename(tmp.Name(), path))
}
