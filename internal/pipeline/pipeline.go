// =============================================================================
// CSV Parser - Pipeline Module
// =============================================================================
//
// This module orchestrates one run over one input file, from parsing to the
// written report.
//
// PIPELINE:
//   1. Check the results directory
//   2. Parse and validate the input file
//   3. Aggregate the accepted records
//   4. Assemble the report
//   5. Write the report in every configured format
//   6. Write the error log
//   7. Archive the input file
//   8. Record the run in the history database
//
// Steps 1 and 5-8 are skipped on a dry run. A fatal error in steps 1-5 fails
// the run. Failures of steps 6-8 are logged and do not fail it.
//
// =============================================================================

package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/Maksym-Tokariev/csv-parser/internal/aggregator"
	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/csvparser"
	"github.com/Maksym-Tokariev/csv-parser/internal/history"
	"github.com/Maksym-Tokariev/csv-parser/internal/report"
	"github.com/Maksym-Tokariev/csv-parser/internal/types"
	"github.com/Maksym-Tokariev/csv-parser/internal/validation"
	"github.com/Maksym-Tokariev/csv-parser/pkg/utils"
)

// Error is the error class for pipeline failures.
var Error = errs.Class("pipeline")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs, output names and the history.
	RunID string

	// InputFile is the processed file.
	InputFile string

	// Success indicates whether the run completed.
	Success bool

	// Error is the fatal error of a failed run.
	Error error

	// Parse holds the parse counters and accepted records.
	Parse *types.ParseResult

	// Report is the assembled report. Nil for a failed run.
	Report *types.Report

	// Errors are the validation errors of all rejected lines.
	Errors []*validation.ValidationError

	// Outputs are the written report files.
	Outputs []string

	// ErrorLog is the written error log, if any.
	ErrorLog string

	// ArchivePath is where the input file was moved to, if archived.
	ArchivePath string

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// Options alter a single run.
type Options struct {
	// DryRun parses, validates and aggregates but writes nothing.
	DryRun bool
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline runs input files through parse, aggregation and report writing.
type Pipeline struct {
	log      *zap.Logger
	settings *config.Settings
	history  *history.Store
	files    *utils.FileManager

	now   func() time.Time
	newID func() string
}

// New creates a pipeline. store may be nil to disable run history.
func New(log *zap.Logger, settings *config.Settings, store *history.Store) *Pipeline {
	paths := settings.Paths()

	return &Pipeline{
		log:      log,
		settings: settings,
		history:  store,
		files:    utils.NewFileManager(paths.ResultsDir, paths.CreateResultsDir, paths.ArchiveDir),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Run processes one input file.
//
// PARAMETERS:
//   - ctx: Cancels parsing between lines.
//   - path: The input file.
//   - opts: Run options.
//
// RETURNS:
//   - The Result. Result.Error carries the fatal error of a failed run.
func (p *Pipeline) Run(ctx context.Context, path string, opts Options) Result {
	start := p.now()
	result := Result{
		RunID:     p.newID(),
		InputFile: path,
	}
	log := p.log.With(zap.String("run", result.RunID), zap.String("file", filepath.Base(path)))

	log.Info("run started", zap.Bool("dryRun", opts.DryRun))

	if path == "" {
		return p.fail(ctx, log, result, start, Error.New("no input file"))
	}

	// =========================================================================
	// STEP 1: CHECK RESULTS DIRECTORY
	// =========================================================================

	if !opts.DryRun {
		if err := p.files.EnsureResultsDir(); err != nil {
			return p.fail(ctx, log, result, start, err)
		}
	}

	// =========================================================================
	// STEP 2: PARSE AND VALIDATE
	// =========================================================================

	recorder := &validation.Recorder{}
	validator := validation.NewValidator(
		p.log.Named("validator"),
		p.settings,
		validation.Reporters{validation.NewLogReporter(p.log.Named("validator")), recorder},
	)
	parser := csvparser.NewStreamParser(p.log.Named("csvparser"), p.settings, validator)

	parsed, err := parser.Parse(ctx, path)
	result.Errors = recorder.Errors()
	if err != nil {
		return p.fail(ctx, log, result, start, err)
	}
	result.Parse = parsed

	// =========================================================================
	// STEP 3: AGGREGATE
	// =========================================================================

	stat := aggregator.New(p.log.Named("aggregator"), p.settings).Aggregate(parsed)

	// =========================================================================
	// STEP 4: ASSEMBLE REPORT
	// =========================================================================

	rep := report.Assemble(parsed, stat)
	result.Report = &rep

	if opts.DryRun {
		return p.succeed(ctx, log, result, start, opts)
	}

	// =========================================================================
	// STEP 5: WRITE REPORTS
	// =========================================================================

	paths := p.settings.Paths()
	params := utils.NameParams{RunID: result.RunID, Time: start, Original: path}

	for _, format := range paths.OutputFormats {
		name := utils.GenerateOutputFileName(paths.ResultFileName, params, report.Extension(format))
		outputPath := filepath.Join(paths.ResultsDir, name)

		if err := report.WriteFile(outputPath, format, rep); err != nil {
			return p.fail(ctx, log, result, start, err)
		}
		p.log.Named("report").Info("report written", zap.String("format", format), zap.String("path", outputPath))
		result.Outputs = append(result.Outputs, outputPath)
	}

	// =========================================================================
	// STEP 6: WRITE ERROR LOG
	// =========================================================================

	if paths.ErrorLog {
		logPath, err := utils.WriteErrorLog(errorLogEntries(result.Errors), paths.ResultsDir, path, result.RunID, start)
		if err != nil {
			log.Warn("failed to write error log", zap.Error(err))
		}
		result.ErrorLog = logPath
	}

	// =========================================================================
	// STEP 7: ARCHIVE INPUT
	// =========================================================================

	if paths.ArchiveDir != "" {
		archivePath, err := p.files.ArchiveInputFile(path)
		if err != nil {
			log.Warn("failed to archive input file", zap.Error(err))
		} else {
			result.ArchivePath = archivePath
		}
	}

	return p.succeed(ctx, log, result, start, opts)
}

// succeed finishes a completed run.
func (p *Pipeline) succeed(ctx context.Context, log *zap.Logger, result Result, start time.Time, opts Options) Result {
	result.Success = true
	result.ProcessingTime = p.now().Sub(start)

	log.Info("run finished",
		zap.Int("totalLines", result.Report.TotalLines),
		zap.Int("validLines", result.Report.ValidLines),
		zap.Int("invalidLines", result.Report.InvalidLines),
		zap.Duration("elapsed", result.ProcessingTime))

	if !opts.DryRun {
		p.record(ctx, log, result, start)
	}
	return result
}

// fail finishes a failed run.
func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, result Result, start time.Time, err error) Result {
	result.Success = false
	result.Error = err
	result.ProcessingTime = p.now().Sub(start)

	log.Error("run failed", zap.Error(err))

	p.record(ctx, log, result, start)
	return result
}

// =============================================================================
// STEP 8: RUN HISTORY
// =============================================================================

// record stores the run in the history database, if there is one.
func (p *Pipeline) record(ctx context.Context, log *zap.Logger, result Result, start time.Time) {
	if p.history == nil {
		return
	}

	run := history.Run{
		ID:           result.RunID,
		InputFile:    result.InputFile,
		Status:       history.StatusSucceeded,
		TotalRevenue: "0",
		Outputs:      result.Outputs,
		StartedAt:    start,
		FinishedAt:   start.Add(result.ProcessingTime),
	}
	if result.Error != nil {
		run.Status = history.StatusFailed
		run.Error = result.Error.Error()
	}
	if rep := result.Report; rep != nil {
		run.TotalLines = rep.TotalLines
		run.ValidLines = rep.ValidLines
		run.InvalidLines = rep.InvalidLines
		run.TotalItems = rep.Stat.TotalItems
		run.TotalRevenue = rep.Stat.TotalRevenue.StringFixed(rep.Stat.FractionDigits)
	}

	// A cancelled run is still recorded.
	if err := p.history.Record(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record run", zap.Error(err))
	}
}

// errorLogEntries converts validation errors for the error log.
func errorLogEntries(errors []*validation.ValidationError) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(errors))
	for _, e := range errors {
		entries = append(entries, utils.ErrorLogEntry{
			Line:    e.Line,
			Field:   e.Field,
			Kind:    e.Kind.String(),
			Message: e.Message,
			Value:   validation.Truncate(e.Value, validation.MaxLoggedValue),
		})
	}
	return entries
}
