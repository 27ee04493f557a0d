// =============================================================================
// CSV Parser - Configuration Module
// =============================================================================
//
// This module is responsible for loading the run settings. A settings file is
// a YAML document layered over the compiled-in defaults returned by Defaults().
//
// CONFIGURATION FILE SECTIONS:
//   1. paths:       input file, results directory, output formats, history db
//   2. parsing:     expected columns, separator, field size, header mapping
//   3. validation:  per-role toggles, numeric limits, regular patterns
//   4. aggregation: toggles, rounding precision, grouping dimensions
//   5. logging:     level, encoding and optional log file
//
// LIFECYCLE:
//   File (raw YAML)  ->  applyDefaults  ->  validate  ->  compile  ->  Settings
//
//   Settings is an immutable snapshot. Column roles and regular patterns are
//   resolved once, here, and every component only reads them.
//
// =============================================================================

package config

import (
	"os"

	"github.com/zeebo/errs"
	"gopkg.in/yaml.v3"
)

// Error is the error class for configuration problems.
var Error = errs.Class("config")

// DefaultConfigFile is the settings file used when --config is not given.
const DefaultConfigFile = "config.yaml"

// =============================================================================
// SETTINGS FILE STRUCTURE
// =============================================================================

// File is the raw settings document as it appears on disk.
type File struct {
	Paths       PathSettings        `yaml:"paths"`
	Parsing     ParsingSettings     `yaml:"parsing"`
	Validation  ValidationSettings  `yaml:"validation"`
	Aggregation AggregationSettings `yaml:"aggregation"`
	Logging     LoggingSettings     `yaml:"logging"`
}

// PathSettings describes where the input comes from and where reports go.
type PathSettings struct {
	// InputFile is the CSV file processed when no --file flag is given.
	InputFile string `yaml:"input_file"`

	// ResultsDir is the directory reports are written to.
	// It must exist and be writable unless CreateResultsDir is set.
	ResultsDir string `yaml:"results_dir"`

	// CreateResultsDir creates ResultsDir when it does not exist.
	CreateResultsDir bool `yaml:"create_results_dir"`

	// ResultFileName is the report file name without extension.
	// Placeholders:
	//   {uuid}      - the run ID
	//   {timestamp} - run start (YYYYMMDD_HHMMSS)
	//   {date}      - run start (YYYYMMDD)
	//   {original}  - input file name without extension
	// Default: "report"
	ResultFileName string `yaml:"result_file_name"`

	// OutputFormats lists the report encodings to write.
	// Valid values: "json", "xml", "xlsx". Default: ["json"]
	OutputFormats []string `yaml:"output_formats"`

	// ErrorLog writes every recoverable validation error of the run to a
	// text file in ResultsDir.
	ErrorLog bool `yaml:"error_log"`

	// ArchiveDir, when set, receives the input file after a successful run.
	ArchiveDir string `yaml:"archive_dir"`

	// HistoryDB is the SQLite database recording every run.
	// Empty disables run history.
	HistoryDB string `yaml:"history_db"`
}

// ParsingSettings describes the expected shape of the input.
type ParsingSettings struct {
	// Columns are the expected column names, in configured order.
	Columns []string `yaml:"columns"`

	// NumberOfColumns is the expected field count of every data row.
	// Default: len(Columns)
	NumberOfColumns int `yaml:"number_of_columns"`

	// MaxFieldSize is the maximum length of a single field, in characters.
	MaxFieldSize int `yaml:"max_field_size"`

	// IDPrefix is the optional prefix character of identifiers ("P" in "P12").
	IDPrefix string `yaml:"id_prefix"`

	// Separator is the single field separator character. Default: ","
	Separator string `yaml:"separator"`

	// DateFormat is the human readable timestamp format used in messages.
	DateFormat string `yaml:"date_format"`

	// MapByHeader maps data values through the header's column order.
	// When false, values are mapped by configured column order index for
	// index, regardless of the header.
	MapByHeader *bool `yaml:"map_by_header"`

	// Roles assigns a validation role to a column.
	// Valid values: "identifier", "price", "quantity", "timestamp", "text".
	// Columns without an entry get the "text" role.
	Roles map[string]string `yaml:"roles"`
}

// ValidationSettings holds the per-role toggles, limits and patterns.
type ValidationSettings struct {
	ValidateID           bool `yaml:"validate_id"`
	ValidatePrice        bool `yaml:"validate_price"`
	ValidateQuantity     bool `yaml:"validate_quantity"`
	ValidateTimestamp    bool `yaml:"validate_timestamp"`
	ValidateStringValues bool `yaml:"validate_string_values"`
	ValidateEmptyFields  bool `yaml:"validate_empty_fields"`

	// MaxQuantity is the inclusive quantity limit. 0 disables the check.
	MaxQuantity int64 `yaml:"max_quantity"`

	// MaxPrice is the exclusive price limit. 0 disables the check.
	MaxPrice float64 `yaml:"max_price"`

	DigitsPattern          string `yaml:"digits_pattern"`
	SpecialCharsPattern    string `yaml:"special_chars_pattern"`
	TimestampPattern       string `yaml:"timestamp_pattern"`
	QuantityPattern        string `yaml:"quantity_pattern"`
	PricePattern           string `yaml:"price_pattern"`
	IdentifierDigitPattern string `yaml:"identifier_digit_pattern"`
}

// AggregationSettings controls the statistics pass.
type AggregationSettings struct {
	Enabled                 bool `yaml:"enabled"`
	CalculateTotalItems     bool `yaml:"calculate_total_items"`
	CalculateTotalRevenue   bool `yaml:"calculate_total_revenue"`
	CalculateDimensionStats bool `yaml:"calculate_dimension_stats"`

	// FractionDigits is the rounding precision of revenue figures.
	FractionDigits int32 `yaml:"fraction_digits"`

	// Dimensions are the categorical columns statistics are grouped by.
	Dimensions []Dimension `yaml:"dimensions"`
}

// Dimension is one grouping key of the aggregation.
type Dimension struct {
	// Column is the grouped column ("category").
	Column string `yaml:"column"`

	// Name is the report key prefix ("categories" gives categoriesCount
	// and categoriesStats).
	Name string `yaml:"name"`
}

// LoggingSettings controls the zap logger.
type LoggingSettings struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level"`

	// Encoding is "console" or "json". Default: "console"
	Encoding string `yaml:"encoding"`

	// File additionally writes debug level JSON logs to this path.
	File string `yaml:"file"`
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// Load reads a YAML settings file and returns the compiled Settings.
//
// PARAMETERS:
//   - path: The settings file. When it is DefaultConfigFile and does not
//     exist, the built-in defaults are used.
//
// RETURNS:
//   - The immutable Settings snapshot.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string) (*Settings, error) {
	file := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, Error.New("failed to parse %s: %v", path, err)
		}
	case os.IsNotExist(err) && path == DefaultConfigFile:
		// no settings file in the working directory, run on defaults
	default:
		return nil, Error.New("failed to read %s: %v", path, err)
	}

	return New(file)
}

// New validates a raw settings document and compiles it into Settings.
func New(file File) (*Settings, error) {
	applyDefaults(&file)

	if err := validate(&file); err != nil {
		return nil, Error.Wrap(err)
	}

	return compile(file)
}
