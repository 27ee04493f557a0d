package config

// =============================================================================
// DEFAULT VALUES
// =============================================================================

const (
	// DefaultMaxFieldSize is the default maximum field length.
	DefaultMaxFieldSize = 30

	// DefaultIDPrefix is the default identifier prefix.
	DefaultIDPrefix = "P"

	// DefaultSeparator is the default field separator.
	DefaultSeparator = ","

	// DefaultDateFormat describes the accepted timestamp layout.
	DefaultDateFormat = "YYYY-MM-DDTHH:MM:SSZ"

	// DefaultFractionDigits is the default revenue rounding precision.
	DefaultFractionDigits = 2

	// DefaultMaxQuantity is the default inclusive quantity limit.
	DefaultMaxQuantity = 1000000

	// DefaultMaxPrice is the default exclusive price limit.
	DefaultMaxPrice = 1000000
)

// Default regular patterns. Price allows a leading minus sign so negative
// prices are reported as NegativePrice instead of a malformed number.
const (
	DefaultDigitsPattern          = `\d`
	DefaultSpecialCharsPattern    = `[@#$%^*()_+=\[\]{}|;:"<>?~]`
	DefaultTimestampPattern       = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`
	DefaultQuantityPattern        = `^(0|[1-9]\d*)$`
	DefaultPricePattern           = `^-?\d+(\.\d+)?$`
	DefaultIdentifierDigitPattern = `^\d$`
)

// DefaultColumns are the columns of a sales export.
var DefaultColumns = []string{"id", "category", "country", "price", "quantity", "sold_at"}

// Defaults returns the built-in settings document.
func Defaults() File {
	mapByHeader := true

	return File{
		Paths: PathSettings{
			InputFile:      "./data/data.csv",
			ResultsDir:     "./results",
			ResultFileName: "report",
			OutputFormats:  []string{FormatJSON},
		},
		Parsing: ParsingSettings{
			// NumberOfColumns stays 0 so it follows a columns list replaced
			// by the settings file.
			Columns:      append([]string(nil), DefaultColumns...),
			MaxFieldSize: DefaultMaxFieldSize,
			IDPrefix:     DefaultIDPrefix,
			Separator:    DefaultSeparator,
			DateFormat:   DefaultDateFormat,
			MapByHeader:  &mapByHeader,
			Roles: map[string]string{
				"id":       "identifier",
				"price":    "price",
				"quantity": "quantity",
				"sold_at":  "timestamp",
				"category": "text",
				"country":  "text",
			},
		},
		Validation: ValidationSettings{
			ValidateID:             true,
			ValidatePrice:          true,
			ValidateQuantity:       true,
			ValidateTimestamp:      true,
			ValidateStringValues:   true,
			ValidateEmptyFields:    true,
			MaxQuantity:            DefaultMaxQuantity,
			MaxPrice:               DefaultMaxPrice,
			DigitsPattern:          DefaultDigitsPattern,
			SpecialCharsPattern:    DefaultSpecialCharsPattern,
			TimestampPattern:       DefaultTimestampPattern,
			QuantityPattern:        DefaultQuantityPattern,
			PricePattern:           DefaultPricePattern,
			IdentifierDigitPattern: DefaultIdentifierDigitPattern,
		},
		Aggregation: AggregationSettings{
			Enabled:                 true,
			CalculateTotalItems:     true,
			CalculateTotalRevenue:   true,
			CalculateDimensionStats: true,
			FractionDigits:          DefaultFractionDigits,
			Dimensions: []Dimension{
				{Column: "category", Name: "categories"},
				{Column: "country", Name: "countries"},
			},
		},
		Logging: LoggingSettings{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// applyDefaults sets default values for any unset option a YAML document
// may have cleared.
func applyDefaults(file *File) {
	if file.Paths.ResultsDir == "" {
		file.Paths.ResultsDir = "./results"
	}
	if file.Paths.ResultFileName == "" {
		file.Paths.ResultFileName = "report"
	}
	if len(file.Paths.OutputFormats) == 0 {
		file.Paths.OutputFormats = []string{FormatJSON}
	}

	if file.Parsing.NumberOfColumns == 0 {
		file.Parsing.NumberOfColumns = len(file.Parsing.Columns)
	}
	if file.Parsing.Separator == "" {
		file.Parsing.Separator = DefaultSeparator
	}
	if file.Parsing.DateFormat == "" {
		file.Parsing.DateFormat = DefaultDateFormat
	}
	if file.Parsing.MapByHeader == nil {
		mapByHeader := true
		file.Parsing.MapByHeader = &mapByHeader
	}

	v := &file.Validation
	if v.DigitsPattern == "" {
		v.DigitsPattern = DefaultDigitsPattern
	}
	if v.SpecialCharsPattern == "" {
		v.SpecialCharsPattern = DefaultSpecialCharsPattern
	}
	if v.TimestampPattern == "" {
		v.TimestampPattern = DefaultTimestampPattern
	}
	if v.QuantityPattern == "" {
		v.QuantityPattern = DefaultQuantityPattern
	}
	if v.PricePattern == "" {
		v.PricePattern = DefaultPricePattern
	}
	if v.IdentifierDigitPattern == "" {
		v.IdentifierDigitPattern = DefaultIdentifierDigitPattern
	}

	if file.Logging.Level == "" {
		file.Logging.Level = "info"
	}
	if file.Logging.Encoding == "" {
		file.Logging.Encoding = "console"
	}
}
