// =============================================================================
// CSV Parser - Validation Errors
// =============================================================================
//
// Every data-quality problem found in a row becomes a ValidationError tagged
// with a Kind from a closed set. Validation errors are recoverable: they
// exclude the row from the accepted records and never abort the run.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind classifies a validation error.
type Kind int

const (
	// ColumnCount means the row does not have the expected number of fields.
	ColumnCount Kind = iota + 1
	// EmptyField means a field is missing or blank.
	EmptyField
	// FieldTooLong means a field exceeds the maximum field size.
	FieldTooLong

	EmptyNumericId
	InvalidIdChars
	NonPositiveId

	MalformedPrice
	NegativePrice
	PriceTooLarge

	MalformedQuantity
	ZeroQuantity
	QuantityTooLarge

	MalformedTimestamp
	InvalidCalendarDate

	UnexpectedDigit
	UnexpectedSpecialChar

	// LineFailure means the row could not be processed at all.
	LineFailure
)

var kindNames = map[Kind]string{
	ColumnCount:           "ColumnCount",
	EmptyField:            "EmptyField",
	FieldTooLong:          "FieldTooLong",
	EmptyNumericId:        "EmptyNumericId",
	InvalidIdChars:        "InvalidIdChars",
	NonPositiveId:         "NonPositiveId",
	MalformedPrice:        "MalformedPrice",
	NegativePrice:         "NegativePrice",
	PriceTooLarge:         "PriceTooLarge",
	MalformedQuantity:     "MalformedQuantity",
	ZeroQuantity:          "ZeroQuantity",
	QuantityTooLarge:      "QuantityTooLarge",
	MalformedTimestamp:    "MalformedTimestamp",
	InvalidCalendarDate:   "InvalidCalendarDate",
	UnexpectedDigit:       "UnexpectedDigit",
	UnexpectedSpecialChar: "UnexpectedSpecialChar",
	LineFailure:           "LineFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError is one problem found in one row.
type ValidationError struct {
	// Line is the 1-based physical line number.
	Line int

	// Field is the column the error concerns. Empty for row-level errors.
	Field string

	Kind Kind

	// Message is a human-readable description.
	Message string

	// Value is the offending raw value.
	Value string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("line %d: %s [%s]: %s (value: %q)",
		e.Line, e.Kind, e.Field, e.Message, Truncate(e.Value, MaxLoggedValue))
}

// MaxLoggedValue is the maximum number of characters of an offending value
// that is logged.
const MaxLoggedValue = 100

// Truncate shortens a value to at most max characters.
func Truncate(value string, max int) string {
	if max < 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max])
}

// FormatErrors formats validation errors for an error log.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors, one per line.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors.\n"
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "Validation found %d error(s) on %d line(s):\n\n",
		len(errors), len(distinctLines(errors)))

	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}

	return builder.String()
}
