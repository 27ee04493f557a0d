package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/errs"
)

// Output formats accepted in paths.output_formats.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
)

// =============================================================================
// COLUMN ROLES
// =============================================================================

// Role selects the semantic check a column gets.
type Role int

const (
	// RoleUnknown marks a position that has no column. Only structural
	// checks run for it.
	RoleUnknown Role = iota
	RoleIdentifier
	RolePrice
	RoleQuantity
	RoleTimestamp
	RoleText
)

var roleNames = map[Role]string{
	RoleUnknown:    "unknown",
	RoleIdentifier: "identifier",
	RolePrice:      "price",
	RoleQuantity:   "quantity",
	RoleTimestamp:  "timestamp",
	RoleText:       "text",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole converts a role name from the settings file.
func ParseRole(name string) (Role, error) {
	for role, roleName := range roleNames {
		if role != RoleUnknown && roleName == strings.ToLower(strings.TrimSpace(name)) {
			return role, nil
		}
	}
	return RoleUnknown, Error.New("unknown column role %q", name)
}

// Column is one expected column and its resolved role.
type Column struct {
	Name string
	Role Role
}

// Patterns are the compiled regular patterns of the validation section.
type Patterns struct {
	Digits          *regexp.Regexp
	SpecialChars    *regexp.Regexp
	Timestamp       *regexp.Regexp
	Quantity        *regexp.Regexp
	Price           *regexp.Regexp
	IdentifierDigit *regexp.Regexp
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the immutable configuration snapshot every component reads.
type Settings struct {
	file     File
	columns  []Column
	byName   map[string]Role
	patterns Patterns
}

// Columns returns the expected columns in configured order.
func (s *Settings) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// ColumnNames returns the expected column names in configured order.
func (s *Settings) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, column := range s.columns {
		names[i] = column.Name
	}
	return names
}

// ColumnCount is the expected number of fields per data row.
func (s *Settings) ColumnCount() int { return s.file.Parsing.NumberOfColumns }

// RoleOf returns the role of a column name, RoleUnknown if it is not expected.
func (s *Settings) RoleOf(name string) Role {
	if role, ok := s.byName[name]; ok {
		return role
	}
	return RoleUnknown
}

// ColumnFor returns the first column with the given role.
func (s *Settings) ColumnFor(role Role) (string, bool) {
	for _, column := range s.columns {
		if column.Role == role {
			return column.Name, true
		}
	}
	return "", false
}

// Separator is the field separator.
func (s *Settings) Separator() string { return s.file.Parsing.Separator }

// MaxFieldSize is the maximum field length in characters.
func (s *Settings) MaxFieldSize() int { return s.file.Parsing.MaxFieldSize }

// IDPrefix is the optional identifier prefix.
func (s *Settings) IDPrefix() string { return s.file.Parsing.IDPrefix }

// DateFormat is the human readable timestamp layout.
func (s *Settings) DateFormat() string { return s.file.Parsing.DateFormat }

// MapByHeader reports whether data rows are mapped through the header order.
func (s *Settings) MapByHeader() bool { return *s.file.Parsing.MapByHeader }

// Patterns returns the compiled validation patterns.
func (s *Settings) Patterns() Patterns { return s.patterns }

// Validation returns the validation section.
func (s *Settings) Validation() ValidationSettings { return s.file.Validation }

// Aggregation returns the aggregation section.
func (s *Settings) Aggregation() AggregationSettings {
	agg := s.file.Aggregation
	agg.Dimensions = append([]Dimension(nil), agg.Dimensions...)
	return agg
}

// Paths returns the paths section.
func (s *Settings) Paths() PathSettings {
	paths := s.file.Paths
	paths.OutputFormats = append([]string(nil), paths.OutputFormats...)
	return paths
}

// Logging returns the logging section.
func (s *Settings) Logging() LoggingSettings { return s.file.Logging }

// WithPaths returns a copy of the settings with a replaced paths section.
// It is used to apply command line overrides.
func (s *Settings) WithPaths(paths PathSettings) (*Settings, error) {
	file := s.file
	file.Paths = paths
	return New(file)
}

// =============================================================================
// VALIDATION AND COMPILATION
// =============================================================================

// validate checks a settings document with defaults applied.
func validate(file *File) error {
	var group errs.Group

	p := file.Parsing
	if len(p.Columns) == 0 {
		group.Add(errs.New("parsing.columns must not be empty"))
	}
	seen := make(map[string]bool, len(p.Columns))
	for _, name := range p.Columns {
		if strings.TrimSpace(name) == "" {
			group.Add(errs.New("parsing.columns contains an empty name"))
			continue
		}
		if seen[name] {
			group.Add(errs.New("parsing.columns contains %q twice", name))
		}
		seen[name] = true
	}
	if p.NumberOfColumns < 0 {
		group.Add(errs.New("parsing.number_of_columns must not be negative"))
	}
	if utf8.RuneCountInString(p.Separator) != 1 {
		group.Add(errs.New("parsing.separator must be a single character, got %q", p.Separator))
	}
	if p.MaxFieldSize < 0 {
		group.Add(errs.New("parsing.max_field_size must not be negative"))
	}
	if utf8.RuneCountInString(p.IDPrefix) > 1 {
		group.Add(errs.New("parsing.id_prefix must be at most one character, got %q", p.IDPrefix))
	}
	// Roles of columns that are not expected are ignored. YAML merges the
	// roles map into the defaults, so stale entries are normal.
	for name, role := range p.Roles {
		if _, err := ParseRole(role); err != nil {
			group.Add(errs.New("parsing.roles.%s: unknown role %q", name, role))
		}
	}

	v := file.Validation
	if v.MaxQuantity < 0 {
		group.Add(errs.New("validation.max_quantity must not be negative"))
	}
	if v.MaxPrice < 0 {
		group.Add(errs.New("validation.max_price must not be negative"))
	}

	a := file.Aggregation
	if a.FractionDigits < 0 {
		group.Add(errs.New("aggregation.fraction_digits must not be negative"))
	}
	names := make(map[string]bool, len(a.Dimensions))
	for _, dim := range a.Dimensions {
		if !seen[dim.Column] {
			group.Add(errs.New("aggregation.dimensions: column %q is not in parsing.columns", dim.Column))
		}
		if dim.Name == "" {
			group.Add(errs.New("aggregation.dimensions: column %q has no name", dim.Column))
		}
		if names[dim.Name] {
			group.Add(errs.New("aggregation.dimensions: name %q used twice", dim.Name))
		}
		names[dim.Name] = true
	}

	for _, format := range file.Paths.OutputFormats {
		switch format {
		case FormatJSON, FormatXML, FormatXLSX:
		default:
			group.Add(errs.New("paths.output_formats: unsupported format %q", format))
		}
	}

	switch file.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		group.Add(errs.New("logging.level: unknown level %q", file.Logging.Level))
	}
	switch file.Logging.Encoding {
	case "console", "json":
	default:
		group.Add(errs.New("logging.encoding: unknown encoding %q", file.Logging.Encoding))
	}

	return group.Err()
}

// compile resolves roles and compiles patterns into a Settings snapshot.
func compile(file File) (*Settings, error) {
	// Detach slices and maps shared with the caller's document.
	file.Parsing.Columns = append([]string(nil), file.Parsing.Columns...)
	file.Paths.OutputFormats = append([]string(nil), file.Paths.OutputFormats...)
	file.Aggregation.Dimensions = append([]Dimension(nil), file.Aggregation.Dimensions...)
	mapByHeader := *file.Parsing.MapByHeader
	file.Parsing.MapByHeader = &mapByHeader
	roles := make(map[string]string, len(file.Parsing.Roles))
	for k, v := range file.Parsing.Roles {
		roles[k] = v
	}
	file.Parsing.Roles = roles

	s := &Settings{
		file:   file,
		byName: make(map[string]Role, len(file.Parsing.Columns)),
	}
	for _, name := range file.Parsing.Columns {
		role := RoleText
		if roleName, ok := file.Parsing.Roles[name]; ok {
			// validated above
			role, _ = ParseRole(roleName)
		}
		s.columns = append(s.columns, Column{Name: name, Role: role})
		s.byName[name] = role
	}

	v := file.Validation
	var group errs.Group
	compilePattern := func(key, expr string) *regexp.Regexp {
		re, err := regexp.Compile(expr)
		if err != nil {
			group.Add(errs.New("validation.%s: %v", key, err))
		}
		return re
	}
	s.patterns = Patterns{
		Digits:          compilePattern("digits_pattern", v.DigitsPattern),
		SpecialChars:    compilePattern("special_chars_pattern", v.SpecialCharsPattern),
		Timestamp:       compilePattern("timestamp_pattern", v.TimestampPattern),
		Quantity:        compilePattern("quantity_pattern", v.QuantityPattern),
		Price:           compilePattern("price_pattern", v.PricePattern),
		IdentifierDigit: compilePattern("identifier_digit_pattern", v.IdentifierDigitPattern),
	}
	if err := group.Err(); err != nil {
		return nil, Error.Wrap(err)
	}

	return s, nil
}
