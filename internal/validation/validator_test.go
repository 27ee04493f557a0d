package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/validation"
)

func newSettings(t *testing.T, modify func(*config.File)) *config.Settings {
	t.Helper()

	file := config.Defaults()
	if modify != nil {
		modify(&file)
	}
	settings, err := config.New(file)
	require.NoError(t, err)
	return settings
}

func newValidator(t *testing.T, settings *config.Settings) *validation.Validator {
	return validation.NewValidator(zaptest.NewLogger(t), settings, nil)
}

// row replaces the fields of a valid row by position.
func row(overrides map[int]string) []string {
	values := []string{"P1", "Books", "US", "10.50", "2", "2024-01-01T00:00:00Z"}
	for i, v := range overrides {
		values[i] = v
	}
	return values
}

func kinds(c *validation.Collector) []validation.Kind {
	var out []validation.Kind
	for _, e := range c.Errors() {
		out = append(out, e.Kind)
	}
	return out
}

func TestValidRow(t *testing.T) {
	settings := newSettings(t, nil)
	v := newValidator(t, settings)

	c := v.Check(2, row(nil), settings.Columns())
	require.False(t, c.HasErrors())
	require.Empty(t, c.Errors())
}

func TestSemanticChecks(t *testing.T) {
	testCases := []struct {
		name   string
		values []string
		kind   validation.Kind
		field  string
	}{
		// identifiers
		{name: "prefixed id", values: row(map[int]string{0: "P007"})},
		{name: "bare id", values: row(map[int]string{0: "007"})},
		{name: "prefix only", values: row(map[int]string{0: "P"}), kind: validation.EmptyNumericId, field: "id"},
		{name: "letter in id", values: row(map[int]string{0: "P12a"}), kind: validation.InvalidIdChars, field: "id"},
		{name: "zero id", values: row(map[int]string{0: "P000"}), kind: validation.NonPositiveId, field: "id"},
		{name: "negative id", values: row(map[int]string{0: "-5"}), kind: validation.InvalidIdChars, field: "id"},

		// prices
		{name: "integer price", values: row(map[int]string{3: "10"})},
		{name: "zero price", values: row(map[int]string{3: "0"})},
		{name: "malformed price", values: row(map[int]string{3: "10,5"}), kind: validation.MalformedPrice, field: "price"},
		{name: "dangling dot", values: row(map[int]string{3: "10."}), kind: validation.MalformedPrice, field: "price"},
		{name: "negative price", values: row(map[int]string{3: "-1.5"}), kind: validation.NegativePrice, field: "price"},
		{name: "price at max", values: row(map[int]string{3: "1000000"}), kind: validation.PriceTooLarge, field: "price"},
		{name: "price below max", values: row(map[int]string{3: "999999.99"})},

		// quantities
		{name: "zero quantity", values: row(map[int]string{4: "0"}), kind: validation.ZeroQuantity, field: "quantity"},
		{name: "leading zero quantity", values: row(map[int]string{4: "01"}), kind: validation.MalformedQuantity, field: "quantity"},
		{name: "fractional quantity", values: row(map[int]string{4: "1.5"}), kind: validation.MalformedQuantity, field: "quantity"},
		{name: "quantity at max", values: row(map[int]string{4: "1000000"})},
		{name: "quantity above max", values: row(map[int]string{4: "1000001"}), kind: validation.QuantityTooLarge, field: "quantity"},
		{name: "quantity overflow", values: row(map[int]string{4: "99999999999999999999"}), kind: validation.QuantityTooLarge, field: "quantity"},

		// timestamps
		{name: "leap day", values: row(map[int]string{5: "2024-02-29T23:59:59Z"})},
		{name: "impossible date", values: row(map[int]string{5: "2024-02-30T00:00:00Z"}), kind: validation.InvalidCalendarDate, field: "sold_at"},
		{name: "impossible hour", values: row(map[int]string{5: "2024-01-01T24:00:00Z"}), kind: validation.InvalidCalendarDate, field: "sold_at"},
		{name: "slashes", values: row(map[int]string{5: "2024/02/30"}), kind: validation.MalformedTimestamp, field: "sold_at"},
		{name: "offset", values: row(map[int]string{5: "2024-01-01T00:00:00+01:00"}), kind: validation.MalformedTimestamp, field: "sold_at"},

		// text
		{name: "text with space", values: row(map[int]string{1: "Home Garden"})},
		{name: "digit in text", values: row(map[int]string{1: "Books2"}), kind: validation.UnexpectedDigit, field: "category"},
		{name: "special char in text", values: row(map[int]string{2: "U$"}), kind: validation.UnexpectedSpecialChar, field: "country"},
	}

	settings := newSettings(t, nil)
	v := newValidator(t, settings)

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := v.Check(2, tc.values, settings.Columns())

			if tc.kind == 0 {
				require.Empty(t, c.Errors())
				return
			}
			errs := c.Errors()
			require.Len(t, errs, 1)
			require.Equal(t, tc.kind, errs[0].Kind)
			require.Equal(t, tc.field, errs[0].Field)
			require.Equal(t, 2, errs[0].Line)
		})
	}
}

func TestInvalidIdCharsAreNamed(t *testing.T) {
	settings := newSettings(t, nil)
	c := newValidator(t, settings).Check(2, row(map[int]string{0: "P12a"}), settings.Columns())

	errs := c.Errors()
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "a")
	require.Equal(t, "P12a", errs[0].Value)

	c = newValidator(t, settings).Check(2, row(map[int]string{0: "Px1y"}), settings.Columns())
	require.Contains(t, c.Errors()[0].Message, "x, y")
}

func TestIdentifierWithoutPrefix(t *testing.T) {
	settings := newSettings(t, func(f *config.File) { f.Parsing.IDPrefix = "" })
	v := newValidator(t, settings)

	require.False(t, v.Check(2, row(map[int]string{0: "12"}), settings.Columns()).HasErrors())
	require.Equal(t, []validation.Kind{validation.InvalidIdChars},
		kinds(v.Check(2, row(map[int]string{0: "P12"}), settings.Columns())))
}

func TestColumnCount(t *testing.T) {
	settings := newSettings(t, nil)
	v := newValidator(t, settings)

	t.Run("truncated row", func(t *testing.T) {
		values := []string{"P1", "Books", "US", "10.50", "2"}
		c := v.Check(3, values, settings.Columns())

		require.Equal(t, []validation.Kind{validation.ColumnCount, validation.EmptyField}, kinds(c))
		errs := c.Errors()
		require.Equal(t, "", errs[0].Field)
		require.Contains(t, errs[0].Message, "Expected 6")
		require.Contains(t, errs[0].Message, "got 5")
		require.Equal(t, "sold_at", errs[1].Field)
	})

	t.Run("extra field", func(t *testing.T) {
		values := append(row(nil), "extra")
		c := v.Check(3, values, settings.Columns())

		require.Equal(t, []validation.Kind{validation.ColumnCount}, kinds(c))
	})

	t.Run("extra field too long", func(t *testing.T) {
		values := append(row(nil), strings.Repeat("x", 31))
		c := v.Check(3, values, settings.Columns())

		require.Equal(t, []validation.Kind{validation.ColumnCount, validation.FieldTooLong}, kinds(c))
		require.Equal(t, "#7", c.Errors()[1].Field)
	})
}

func TestSemanticGate(t *testing.T) {
	settings := newSettings(t, nil)
	v := newValidator(t, settings)

	t.Run("structural error blocks later semantic checks", func(t *testing.T) {
		values := row(map[int]string{0: "", 1: "Books1", 3: strings.Repeat("9", 31)})
		c := v.Check(2, values, settings.Columns())

		// the price length is still checked, the category digit is not
		require.Equal(t, []validation.Kind{validation.EmptyField, validation.FieldTooLong}, kinds(c))
		require.Equal(t, "id", c.Errors()[0].Field)
		require.Equal(t, "price", c.Errors()[1].Field)
	})

	t.Run("semantic error blocks later semantic checks", func(t *testing.T) {
		values := row(map[int]string{1: "Books1", 3: "-1", 4: "0"})
		c := v.Check(2, values, settings.Columns())

		require.Equal(t, []validation.Kind{validation.UnexpectedDigit}, kinds(c))
	})

	t.Run("later structural error after semantic error", func(t *testing.T) {
		values := row(map[int]string{1: "Books1", 5: ""})
		c := v.Check(2, values, settings.Columns())

		require.Equal(t, []validation.Kind{validation.UnexpectedDigit, validation.EmptyField}, kinds(c))
	})
}

func TestFieldLength(t *testing.T) {
	settings := newSettings(t, func(f *config.File) { f.Parsing.MaxFieldSize = 20 })
	v := newValidator(t, settings)

	// twenty characters, forty bytes
	require.False(t, v.Check(2, row(map[int]string{1: strings.Repeat("Ä", 20)}), settings.Columns()).HasErrors())
	require.Equal(t, []validation.Kind{validation.FieldTooLong},
		kinds(v.Check(2, row(map[int]string{1: strings.Repeat("Ä", 21)}), settings.Columns())))
}

func TestToggles(t *testing.T) {
	settings := newSettings(t, func(f *config.File) {
		f.Validation.ValidateID = false
		f.Validation.ValidatePrice = false
		f.Validation.ValidateQuantity = false
		f.Validation.ValidateTimestamp = false
		f.Validation.ValidateStringValues = false
		f.Validation.ValidateEmptyFields = false
	})
	v := newValidator(t, settings)

	values := []string{"x", "B00ks", "", "cheap", "many", "yesterday"}
	require.False(t, v.Check(2, values, settings.Columns()).HasErrors())
}

func TestUnknownColumnsGetStructuralChecksOnly(t *testing.T) {
	settings := newSettings(t, nil)
	v := newValidator(t, settings)

	layout := settings.Columns()
	layout[1] = config.Column{Name: "store", Role: config.RoleUnknown}

	values := row(map[int]string{1: "Store #12"})
	require.False(t, v.Check(2, values, layout).HasErrors())

	values = row(map[int]string{1: ""})
	require.Equal(t, []validation.Kind{validation.EmptyField}, kinds(v.Check(2, values, layout)))
}

func TestCheckHeader(t *testing.T) {
	settings := newSettings(t, nil)
	v := newValidator(t, settings)

	require.Empty(t, v.CheckHeader([]string{"sold_at", "quantity", "price", "country", "category", "id"}))
	require.Empty(t, v.CheckHeader([]string{"id", "category", "country", "price", "quantity", "sold_at", "note"}))
	require.Equal(t, []string{"sold_at"}, v.CheckHeader([]string{"id", "category", "country", "price", "quantity"}))
	require.Equal(t, []string{"id", "price"}, v.CheckHeader([]string{" category ", "country", "quantity", "sold_at"}))
}

func TestValidateLineReports(t *testing.T) {
	settings := newSettings(t, nil)

	core, logs := observer.New(zapcore.InfoLevel)
	recorder := &validation.Recorder{}
	reporters := validation.Reporters{validation.NewLogReporter(zap.New(core)), recorder}
	v := validation.NewValidator(zap.NewNop(), settings, reporters)

	require.False(t, v.ValidateLine(2, row(nil), settings.Columns()))
	require.Zero(t, logs.Len())

	long := strings.Repeat("Z", 150)
	require.True(t, v.ValidateLine(3, row(map[int]string{1: long}), settings.Columns()))
	require.True(t, v.ValidateLine(4, row(map[int]string{4: "0"}), settings.Columns()))

	require.Equal(t, []int{3, 4}, recorder.Lines())
	require.Equal(t, map[validation.Kind]int{
		validation.FieldTooLong: 1,
		validation.ZeroQuantity: 1,
	}, recorder.Kinds())

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 2)

	first := warnings[0].ContextMap()
	require.EqualValues(t, 3, first["line"])
	require.Equal(t, "category", first["field"])
	require.Equal(t, "FieldTooLong", first["kind"])
	require.Len(t, first["value"], validation.MaxLoggedValue)

	require.Len(t, logs.FilterMessage("found validation errors").All(), 2)
}

func TestReportFailure(t *testing.T) {
	recorder := &validation.Recorder{}
	v := validation.NewValidator(zaptest.NewLogger(t), newSettings(t, nil), recorder)

	v.ReportFailure(7, "P1,Books", errors.New("boom"))

	errs := recorder.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, 7, errs[0].Line)
	require.Equal(t, validation.LineFailure, errs[0].Kind)
	require.Empty(t, errs[0].Field)
	require.Equal(t, "P1,Books", errs[0].Value)
	require.Contains(t, errs[0].Message, "boom")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", validation.Truncate("abc", 5))
	require.Equal(t, "ab", validation.Truncate("abc", 2))
	require.Equal(t, "äö", validation.Truncate("äöü", 2))
}

func TestFormatErrors(t *testing.T) {
	require.Equal(t, "No validation errors.\n", validation.FormatErrors(nil))

	c := validation.NewCollector(7)
	c.Push("quantity", validation.ZeroQuantity, "0", "Quantity cannot be zero")
	c.Push("", validation.ColumnCount, "a,b", "Invalid number of fields")

	out := validation.FormatErrors(c.Errors())
	require.Contains(t, out, "2 error(s) on 1 line(s)")
	require.Contains(t, out, "1. line 7: ZeroQuantity [quantity]: Quantity cannot be zero")
	require.Contains(t, out, "2. line 7: ColumnCount: Invalid number of fields")
}
