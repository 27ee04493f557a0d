package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Maksym-Tokariev/csv-parser/internal/types"
)

// SummarySheet is the name of the first workbook sheet.
const SummarySheet = "Summary"

// maxSheetName is the sheet name length limit of the XLSX format.
const maxSheetName = 31

// EncodeXLSX renders the report as a workbook.
//
// WORKBOOK LAYOUT:
//   - "Summary": one metric per row (totalLines ... totalRevenue and the
//     distinct key count of every dimension).
//   - One sheet per dimension, named after it, with the columns
//     Key | Items | Revenue | AvgPrice and one row per key.
//
// Numbers are stored as cell numbers. Revenue cells carry a number format
// with the configured fraction digits.
func EncodeXLSX(rep types.Report) (_ []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = Error.Wrap(closeErr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, Error.Wrap(err)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: moneyFormat(rep.Stat.FractionDigits)})
	if err != nil {
		return nil, Error.Wrap(err)
	}

	if err := writeSummarySheet(f, rep, moneyStyle); err != nil {
		return nil, Error.Wrap(err)
	}

	for _, dim := range rep.Stat.Dimensions {
		if err := writeDimensionSheet(f, dim, moneyStyle); err != nil {
			return nil, Error.New("dimension %q: %v", dim.Name, err)
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return buffer.Bytes(), nil
}

// writeSummarySheet writes the counters and totals.
func writeSummarySheet(f *excelize.File, rep types.Report, moneyStyle int) error {
	stat := rep.Stat

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"totalLines", rep.TotalLines},
		{"validLines", rep.ValidLines},
		{"invalidLines", rep.InvalidLines},
		{"skippedRows", rep.SkippedRows},
		{"totalItems", stat.TotalItems},
		{"totalRevenue", stat.TotalRevenue.InexactFloat64()},
	}
	revenueRow := len(rows)
	for _, dim := range stat.Dimensions {
		rows = append(rows, []interface{}{dim.Name + "Count", dim.Count})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	revenueCell, err := excelize.CoordinatesToCellName(2, revenueRow)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SummarySheet, revenueCell, revenueCell, moneyStyle)
}

// writeDimensionSheet writes the per-key statistics of one dimension.
func writeDimensionSheet(f *excelize.File, dim types.DimensionResult, moneyStyle int) error {
	sheet := sheetName(dim.Name)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{"Key", "Items", "Revenue", "AvgPrice"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, key := range dim.Stats.Keys {
		row := []interface{}{
			key,
			dim.Stats.Items[key],
			dim.Stats.Revenue[key].InexactFloat64(),
			dim.Stats.AvgPrice[key].InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(dim.Stats.Keys) > 0 {
		last, err := excelize.CoordinatesToCellName(3, len(dim.Stats.Keys)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "C2", last, moneyStyle); err != nil {
			return err
		}
	}

	return nil
}

// sheetName trims a dimension name to the sheet name limit.
func sheetName(name string) string {
	runes := []rune(name)
	if len(runes) > maxSheetName {
		return string(runes[:maxSheetName])
	}
	return name
}

// moneyFormat is the number format with digits fraction digits.
func moneyFormat(digits int32) *string {
	format := "0"
	if digits > 0 {
		format = fmt.Sprintf("0.%0*d", int(digits), 0)
	}
	return &format
}
