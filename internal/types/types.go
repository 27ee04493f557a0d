// =============================================================================
// CSV Parser - Shared Types
// =============================================================================
//
// This package contains the data model shared by the pipeline stages so that
// they do not import each other. Types defined here are used by:
//   - csvparser  (produces ParseResult)
//   - aggregator (produces StatData)
//   - report     (produces and writes Report)
//   - pipeline   (drives the stages)
//
// =============================================================================

package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PARSE TYPES
// =============================================================================

// Record is one accepted data row: column name to trimmed raw value.
// A Record is immutable once built.
type Record struct {
	line   int
	fields map[string]string
}

// NewRecord builds a record for a physical line number.
func NewRecord(line int, fields map[string]string) Record {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Record{line: line, fields: copied}
}

// Line is the 1-based physical line number the record came from.
func (r Record) Line() int { return r.line }

// Get returns the value of a column.
func (r Record) Get(column string) (string, bool) {
	v, ok := r.fields[column]
	return v, ok
}

// Value returns the value of a column, or "" when it is absent.
func (r Record) Value(column string) string { return r.fields[column] }

// Fields returns a copy of the column to value mapping.
func (r Record) Fields() map[string]string {
	copied := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		copied[k] = v
	}
	return copied
}

// ParseResult is the output of the streaming parse stage.
type ParseResult struct {
	// Records are the accepted rows in order of appearance.
	Records []Record

	// TotalLines counts every line after the header, blank lines included.
	TotalLines int

	// ValidLines counts accepted rows.
	ValidLines int

	// InvalidLines counts rejected rows.
	InvalidLines int
}

// BlankLines is the number of skipped blank lines.
func (p ParseResult) BlankLines() int {
	return p.TotalLines - p.ValidLines - p.InvalidLines
}

// =============================================================================
// AGGREGATION TYPES
// =============================================================================

// DimensionStats holds the per-key statistics of one grouping dimension.
// Items, Revenue and AvgPrice always share the same key set, which is Keys.
type DimensionStats struct {
	// Keys are the distinct values of the dimension, sorted.
	Keys []string

	// Items is the summed quantity per key.
	Items map[string]int64

	// Revenue is the summed per-record rounded price x quantity per key.
	Revenue map[string]decimal.Decimal

	// AvgPrice is the mean of the unrounded prices per key.
	AvgPrice map[string]decimal.Decimal
}

// NewDimensionStats returns empty statistics.
func NewDimensionStats() DimensionStats {
	return DimensionStats{
		Keys:     []string{},
		Items:    map[string]int64{},
		Revenue:  map[string]decimal.Decimal{},
		AvgPrice: map[string]decimal.Decimal{},
	}
}

// SortKeys rebuilds Keys from the Items map in lexicographic order.
func (d *DimensionStats) SortKeys() {
	keys := make([]string, 0, len(d.Items))
	for k := range d.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d.Keys = keys
}

// DimensionResult is the aggregation outcome of one configured dimension.
type DimensionResult struct {
	// Name is the report key prefix, e.g. "categories".
	Name string

	// Column is the grouped column, e.g. "category".
	Column string

	// Count is the number of distinct keys.
	Count int

	Stats DimensionStats
}

// StatData is the output of the aggregation stage.
type StatData struct {
	TotalItems   int64
	TotalRevenue decimal.Decimal

	// FractionDigits is the precision revenue figures were rounded to.
	FractionDigits int32

	// Dimensions follow the configured dimension order.
	Dimensions []DimensionResult
}

// Dimension returns the result of a dimension by report name.
func (s StatData) Dimension(name string) (DimensionResult, bool) {
	for _, dim := range s.Dimensions {
		if dim.Name == name {
			return dim, true
		}
	}
	return DimensionResult{}, false
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report combines the parse counters and the statistics of one run.
type Report struct {
	TotalLines   int
	ValidLines   int
	InvalidLines int

	// SkippedRows always equals InvalidLines.
	SkippedRows int

	Stat StatData
}
