// =============================================================================
// CSV Parser - Stream Parser Module
// =============================================================================
//
// This module turns a delimited text file into a ParseResult. The file is
// read line by line and only the current line is held in memory.
//
// PARSING PROCESS:
//   1. The first non-blank line is the header. Every expected column must be
//      present in it, in any order.
//   2. Every following line counts towards TotalLines. Blank lines are
//      skipped and counted neither valid nor invalid.
//   3. Other lines are split on the separator and validated. Rows with
//      errors are counted invalid and dropped. Clean rows become Records.
//
// FATAL ERRORS:
//   - ErrSourceNotFound: the input file does not exist.
//   - ErrEmptyInput:     the input holds no header line.
//   - ErrInvalidHeader:  the header misses expected columns (see HeaderError).
//
// Everything else, including a failure while handling a single line, only
// rejects that line.
//
// KNOWN LIMITATION:
//   Fields are split on the bare separator. Quoting and escaping of the
//   separator inside a field are not supported.
//
// =============================================================================

package csvparser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/types"
	"github.com/Maksym-Tokariev/csv-parser/internal/validation"
)

var (
	// Error is the error class for unexpected parser failures.
	Error = errs.Class("csvparser")

	// ErrSourceNotFound is returned when the input file does not exist.
	ErrSourceNotFound = errs.Class("source not found")

	// ErrEmptyInput is returned when the input has no header line.
	ErrEmptyInput = errs.Class("empty input")

	// ErrInvalidHeader is returned when the header misses expected columns.
	// The wrapped *HeaderError lists them.
	ErrInvalidHeader = errs.Class("invalid header")
)

// HeaderError lists the expected columns absent from the header.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

// =============================================================================
// STREAM PARSER
// =============================================================================

// StreamParser reads input files and drives the validator per line.
type StreamParser struct {
	log       *zap.Logger
	settings  *config.Settings
	validator *validation.Validator
}

// NewStreamParser creates a parser.
func NewStreamParser(log *zap.Logger, settings *config.Settings, validator *validation.Validator) *StreamParser {
	return &StreamParser{
		log:       log,
		settings:  settings,
		validator: validator,
	}
}

// Parse opens a file and parses it. The file is closed on every exit path.
//
// PARAMETERS:
//   - ctx: Checked between lines. A cancelled context aborts the parse.
//   - path: The input file.
//
// RETURNS:
//   - The ParseResult.
//   - A fatal error (see the error classes of this package).
func (p *StreamParser) Parse(ctx context.Context, path string) (_ *types.ParseResult, err error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSourceNotFound.New("%s", path)
		}
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(file.Close())) }()

	p.log.Debug("parsing file", zap.String("path", path))

	return p.ParseReader(ctx, file)
}

// ParseReader parses an already opened source.
func (p *StreamParser) ParseReader(ctx context.Context, r io.Reader) (*types.ParseResult, error) {
	lines := newLineReader(r)

	header, err := p.readHeader(ctx, lines)
	if err != nil {
		return nil, err
	}

	if missing := p.validator.CheckHeader(header); len(missing) > 0 {
		p.log.Error("invalid header", zap.Strings("missing", missing))
		return nil, ErrInvalidHeader.Wrap(&HeaderError{Missing: missing})
	}

	layout := p.layout(header)
	result := &types.ParseResult{Records: []types.Record{}}

	for lines.Next() {
		if err := ctx.Err(); err != nil {
			return nil, Error.Wrap(err)
		}

		result.TotalLines++

		text := lines.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		record, ok, err := p.processLine(lines.Line(), text, layout)
		switch {
		case err != nil:
			p.log.Warn("failed to process line", zap.Int("line", lines.Line()), zap.Error(err))
			p.validator.ReportFailure(lines.Line(), text, err)
			result.InvalidLines++
		case !ok:
			result.InvalidLines++
		default:
			result.Records = append(result.Records, record)
			result.ValidLines++
		}
	}
	if err := lines.Err(); err != nil {
		return nil, Error.Wrap(err)
	}

	p.log.Info("file parsed",
		zap.Int("totalLines", result.TotalLines),
		zap.Int("validLines", result.ValidLines),
		zap.Int("invalidLines", result.InvalidLines))

	return result, nil
}

// readHeader returns the split first non-blank line.
func (p *StreamParser) readHeader(ctx context.Context, lines *lineReader) ([]string, error) {
	for lines.Next() {
		if err := ctx.Err(); err != nil {
			return nil, Error.Wrap(err)
		}
		text := lines.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		header := strings.Split(text, p.settings.Separator())
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		return header, nil
	}
	if err := lines.Err(); err != nil {
		return nil, Error.Wrap(err)
	}
	return nil, ErrEmptyInput.New("no header line")
}

// layout returns the column of every position of a data row.
//
// With map_by_header the header order decides. Header columns that are not
// expected get RoleUnknown. Otherwise positions follow the configured order.
func (p *StreamParser) layout(header []string) []config.Column {
	if !p.settings.MapByHeader() {
		return p.settings.Columns()
	}

	layout := make([]config.Column, len(header))
	for i, name := range header {
		layout[i] = config.Column{Name: name, Role: p.settings.RoleOf(name)}
	}
	return layout
}

// processLine validates one data row and builds its record. A panic while
// handling the row is turned into an error for that row only.
func (p *StreamParser) processLine(line int, text string, layout []config.Column) (record types.Record, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Error.New("line %d: %v", line, r)
		}
	}()

	values := strings.Split(text, p.settings.Separator())
	if p.validator.ValidateLine(line, values, layout) {
		return types.Record{}, false, nil
	}

	fields := make(map[string]string, len(layout))
	for i, column := range layout {
		if i >= len(values) || column.Role == config.RoleUnknown {
			continue
		}
		fields[column.Name] = strings.TrimSpace(values[i])
	}

	return types.NewRecord(line, fields), true, nil
}
