package validation

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Collector accumulates the validation errors of a single row.
type Collector struct {
	line   int
	errors []*ValidationError
}

// NewCollector returns an empty collector for a line.
func NewCollector(line int) *Collector {
	return &Collector{line: line}
}

// Push adds an error for a field of the collector's line.
func (c *Collector) Push(field string, kind Kind, value, format string, args ...interface{}) {
	c.errors = append(c.errors, &ValidationError{
		Line:    c.line,
		Field:   field,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
	})
}

// HasErrors reports whether any error was pushed.
func (c *Collector) HasErrors() bool { return len(c.errors) > 0 }

// Errors returns the pushed errors in push order.
func (c *Collector) Errors() []*ValidationError {
	return append([]*ValidationError(nil), c.errors...)
}

// Report hands the pushed errors to a reporter. Nothing is reported for a
// clean row.
func (c *Collector) Report(reporter Reporter) {
	if reporter == nil || !c.HasErrors() {
		return
	}
	reporter.Report(c.Errors())
}

// =============================================================================
// REPORTERS
// =============================================================================

// Reporter receives the errors of a rejected row.
type Reporter interface {
	Report(errors []*ValidationError)
}

// LogReporter logs validation errors.
type LogReporter struct {
	log *zap.Logger
}

// NewLogReporter returns a reporter that warns about every error.
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report logs the number of affected lines, then one warning per error.
func (r *LogReporter) Report(errors []*ValidationError) {
	if len(errors) == 0 {
		return
	}
	r.log.Info("found validation errors",
		zap.Int("lines", len(distinctLines(errors))),
		zap.Int("errors", len(errors)))

	for i, e := range errors {
		r.log.Warn(e.Message,
			zap.Int("errorNumber", i+1),
			zap.Int("line", e.Line),
			zap.String("field", e.Field),
			zap.Stringer("kind", e.Kind),
			zap.String("value", Truncate(e.Value, MaxLoggedValue)))
	}
}

// Recorder keeps every reported error of a run.
type Recorder struct {
	errors []*ValidationError
}

// Report implements Reporter.
func (r *Recorder) Report(errors []*ValidationError) {
	r.errors = append(r.errors, errors...)
}

// Errors returns all recorded errors in report order.
func (r *Recorder) Errors() []*ValidationError {
	return append([]*ValidationError(nil), r.errors...)
}

// Lines returns the distinct line numbers with errors, ascending.
func (r *Recorder) Lines() []int { return distinctLines(r.errors) }

// Kinds counts the recorded errors per kind.
func (r *Recorder) Kinds() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range r.errors {
		counts[e.Kind]++
	}
	return counts
}

// Reporters fans a report out to several reporters.
type Reporters []Reporter

// Report implements Reporter.
func (rs Reporters) Report(errors []*ValidationError) {
	for _, r := range rs {
		if r != nil {
			r.Report(errors)
		}
	}
}

func distinctLines(errors []*ValidationError) []int {
	seen := make(map[int]bool)
	lines := []int{}
	for _, e := range errors {
		if !seen[e.Line] {
			seen[e.Line] = true
			lines = append(lines, e.Line)
		}
	}
	sort.Ints(lines)
	return lines
}
