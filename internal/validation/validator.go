// =============================================================================
// CSV Parser - Validation Engine
// =============================================================================
//
// This module validates one row of raw field values against the settings.
// Every violation found is collected, not only the first one.
//
// VALIDATION ORDER (per row):
//   1. Row-level:        the field count must equal the expected column count.
//   2. Field structure:  every field is checked for emptiness and length.
//   3. Field semantics:  the role check of a field (identifier, price,
//                        quantity, timestamp, text) runs only while the row
//                        has no error yet. The gate is re-read before every
//                        field, so a structural error on one field blocks the
//                        semantic checks of the following fields only.
//
// Each semantic check stops at the first problem it finds for its field.
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
)

// timestampLayout is the Go layout of YYYY-MM-DDTHH:MM:SSZ.
const timestampLayout = "2006-01-02T15:04:05Z"

// Validator checks rows against the settings.
type Validator struct {
	log      *zap.Logger
	settings *config.Settings
	reporter Reporter

	maxPrice decimal.Decimal
}

// NewValidator creates a validator. Errors of rejected rows are handed to
// reporter, which may be nil.
func NewValidator(log *zap.Logger, settings *config.Settings, reporter Reporter) *Validator {
	return &Validator{
		log:      log,
		settings: settings,
		reporter: reporter,
		maxPrice: decimal.NewFromFloat(settings.Validation().MaxPrice),
	}
}

// =============================================================================
// HEADER VALIDATION
// =============================================================================

// CheckHeader returns the expected columns absent from a header row, in
// configured order. Header order and extra header columns are not checked.
func (v *Validator) CheckHeader(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[strings.TrimSpace(name)] = true
	}

	var missing []string
	for _, name := range v.settings.ColumnNames() {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	v.log.Debug("header checked", zap.Strings("header", header), zap.Strings("missing", missing))
	return missing
}

// =============================================================================
// ROW VALIDATION
// =============================================================================

// ValidateLine validates one row, reports its errors and returns whether
// there were any.
//
// PARAMETERS:
//   - line: The 1-based physical line number.
//   - values: The raw field values, split on the separator.
//   - layout: The column of every position. Positions past the end of the
//     layout are validated as unknown columns.
//
// RETURNS:
//   - true if the row has at least one error.
func (v *Validator) ValidateLine(line int, values []string, layout []config.Column) bool {
	c := v.Check(line, values, layout)
	c.Report(v.reporter)
	return c.HasErrors()
}

// Check validates one row and returns the collected errors without
// reporting them.
func (v *Validator) Check(line int, values []string, layout []config.Column) *Collector {
	c := NewCollector(line)

	expected := v.settings.ColumnCount()
	if len(values) != expected {
		c.Push("", ColumnCount, strings.Join(values, v.settings.Separator()),
			"Invalid number of fields. Expected %d [%s], got %d [%s]",
			expected, strings.Join(v.settings.ColumnNames(), ", "),
			len(values), strings.Join(values, ", "))
	}

	positions := len(values)
	if len(layout) > positions {
		positions = len(layout)
	}

	validation := v.settings.Validation()
	maxSize := v.settings.MaxFieldSize()

	for i := 0; i < positions; i++ {
		column := columnAt(layout, i)

		var value string
		present := i < len(values)
		if present {
			value = strings.TrimSpace(values[i])
		}

		if validation.ValidateEmptyFields && value == "" {
			c.Push(column.Name, EmptyField, value, "Empty value in column: %s", column.Name)
		}
		if maxSize > 0 && utf8.RuneCountInString(value) > maxSize {
			c.Push(column.Name, FieldTooLong, value,
				"Value too long in column [%s]. Max length: %d", column.Name, maxSize)
		}

		if c.HasErrors() || !present {
			continue
		}
		v.checkField(c, column, value)
	}

	return c
}

// ReportFailure reports a row that could not be validated at all. The row
// is rejected with a single LineFailure error.
func (v *Validator) ReportFailure(line int, text string, cause error) {
	c := NewCollector(line)
	c.Push("", LineFailure, text, "Line could not be processed: %v", cause)
	c.Report(v.reporter)
}

// columnAt returns the column of a position.
func columnAt(layout []config.Column, i int) config.Column {
	if i < len(layout) {
		return layout[i]
	}
	return config.Column{Name: fmt.Sprintf("#%d", i+1), Role: config.RoleUnknown}
}

// checkField runs the semantic check of a field's role.
func (v *Validator) checkField(c *Collector, column config.Column, value string) {
	validation := v.settings.Validation()

	switch column.Role {
	case config.RoleIdentifier:
		if validation.ValidateID {
			v.checkIdentifier(c, column.Name, value)
		}
	case config.RolePrice:
		if validation.ValidatePrice {
			v.checkPrice(c, column.Name, value)
		}
	case config.RoleQuantity:
		if validation.ValidateQuantity {
			v.checkQuantity(c, column.Name, value)
		}
	case config.RoleTimestamp:
		if validation.ValidateTimestamp {
			v.checkTimestamp(c, column.Name, value)
		}
	case config.RoleText:
		if validation.ValidateStringValues {
			v.checkText(c, column.Name, value)
		}
	case config.RoleUnknown:
		// structural checks only
	}
}

// =============================================================================
// SEMANTIC CHECKS
// =============================================================================

// checkIdentifier accepts an optional prefix followed by a positive integer.
func (v *Validator) checkIdentifier(c *Collector, field, value string) {
	prefix := v.settings.IDPrefix()
	digits := value
	if prefix != "" {
		digits = strings.TrimPrefix(value, prefix)
	}

	if digits == "" {
		if prefix != "" {
			c.Push(field, EmptyNumericId, value, "Id must contain numbers after '%s' prefix", prefix)
		} else {
			c.Push(field, EmptyNumericId, value, "Id must contain numbers")
		}
		return
	}

	digitPattern := v.settings.Patterns().IdentifierDigit
	var invalid []string
	for _, r := range digits {
		if !digitPattern.MatchString(string(r)) {
			invalid = append(invalid, string(r))
		}
	}
	if len(invalid) > 0 {
		c.Push(field, InvalidIdChars, value, "Id contains invalid characters: %s", strings.Join(invalid, ", "))
		return
	}

	if strings.TrimLeft(digits, "0") == "" {
		c.Push(field, NonPositiveId, value, "Id must be positive number")
	}
}

// checkPrice accepts a non-negative decimal number below the maximum price.
func (v *Validator) checkPrice(c *Collector, field, value string) {
	if !v.settings.Patterns().Price.MatchString(value) {
		c.Push(field, MalformedPrice, value, "Price must be a decimal number")
		return
	}

	price, err := decimal.NewFromString(value)
	if err != nil {
		c.Push(field, MalformedPrice, value, "Price must be a decimal number")
		return
	}
	if price.IsNegative() {
		c.Push(field, NegativePrice, value, "Price cannot be negative")
		return
	}
	if v.maxPrice.IsPositive() && price.GreaterThanOrEqual(v.maxPrice) {
		c.Push(field, PriceTooLarge, value, "Price must be less then max %s", v.maxPrice.String())
	}
}

// checkQuantity accepts an integer in (0, max quantity].
func (v *Validator) checkQuantity(c *Collector, field, value string) {
	if !v.settings.Patterns().Quantity.MatchString(value) {
		c.Push(field, MalformedQuantity, value, "Quantity must be a non-negative integer")
		return
	}

	maxQuantity := v.settings.Validation().MaxQuantity
	quantity, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			c.Push(field, QuantityTooLarge, value, "Quantity must not be greater than %d", maxQuantity)
			return
		}
		c.Push(field, MalformedQuantity, value, "Quantity must be a non-negative integer")
		return
	}

	if quantity == 0 {
		c.Push(field, ZeroQuantity, value, "Quantity cannot be zero")
		return
	}
	if quantity < 0 {
		c.Push(field, MalformedQuantity, value, "Quantity must be a non-negative integer")
		return
	}
	if maxQuantity > 0 && quantity > maxQuantity {
		c.Push(field, QuantityTooLarge, value, "Quantity must not be greater than %d", maxQuantity)
	}
}

// checkTimestamp accepts an exact YYYY-MM-DDTHH:MM:SSZ timestamp naming a
// real calendar instant.
func (v *Validator) checkTimestamp(c *Collector, field, value string) {
	if !v.settings.Patterns().Timestamp.MatchString(value) {
		c.Push(field, MalformedTimestamp, value, "Timestamp must be in exact format %s", v.settings.DateFormat())
		return
	}

	parsed, err := time.Parse(timestampLayout, value)
	if err != nil || parsed.Format(timestampLayout) != value {
		c.Push(field, InvalidCalendarDate, value, "Timestamp %s is not a valid calendar date", value)
	}
}

// checkText rejects digits and special characters.
func (v *Validator) checkText(c *Collector, field, value string) {
	patterns := v.settings.Patterns()

	if patterns.Digits.MatchString(value) {
		c.Push(field, UnexpectedDigit, value, "%s must not contain numbers", field)
		return
	}
	if patterns.SpecialChars.MatchString(value) {
		c.Push(field, UnexpectedSpecialChar, value, "%s must not contain special chars", field)
	}
}
