// =============================================================================
// CSV Parser - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a run:
//   - Results directory checks
//   - Report file naming
//   - Error log generation
//   - Input file archival
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory after a successful run
//   - Failed or dry runs leave the input in place
//   - An archived file never overwrites an earlier one
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/errs"
)

// Error is the error class for file management failures.
var Error = errs.Class("files")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the files of a run.
type FileManager struct {
	// ResultsDir is the directory reports and error logs are written to.
	ResultsDir string

	// CreateResultsDir creates ResultsDir when it is missing.
	CreateResultsDir bool

	// ArchiveDir receives processed input files. Empty disables archival.
	ArchiveDir string
}

// NewFileManager creates a FileManager.
func NewFileManager(resultsDir string, createResultsDir bool, archiveDir string) *FileManager {
	return &FileManager{
		ResultsDir:       resultsDir,
		CreateResultsDir: createResultsDir,
		ArchiveDir:       archiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureResultsDir checks that the results directory exists and is writable.
// A missing directory is created when CreateResultsDir is set.
func (fm *FileManager) EnsureResultsDir() error {
	info, err := os.Stat(fm.ResultsDir)
	switch {
	case os.IsNotExist(err) && fm.CreateResultsDir:
		if err := os.MkdirAll(fm.ResultsDir, 0755); err != nil {
			return Error.New("failed to create results directory %s: %v", fm.ResultsDir, err)
		}
	case os.IsNotExist(err):
		return Error.New("results directory %s does not exist", fm.ResultsDir)
	case err != nil:
		return Error.Wrap(err)
	case !info.IsDir():
		return Error.New("results path %s is not a directory", fm.ResultsDir)
	}

	probe, err := os.CreateTemp(fm.ResultsDir, ".write-check-*")
	if err != nil {
		return Error.New("results directory %s is not writable: %v", fm.ResultsDir, err)
	}
	return errs.Combine(Error.Wrap(probe.Close()), Error.Wrap(os.Remove(probe.Name())))
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file. Equal to filePath when archival is off.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	if err := os.MkdirAll(fm.ArchiveDir, 0755); err != nil {
		return "", Error.New("failed to create archive directory: %v", err)
	}

	archivePath := filepath.Join(fm.ArchiveDir, filepath.Base(filePath))
	if FileExists(archivePath) {
		archivePath = filepath.Join(fm.ArchiveDir,
			time.Now().Format("20060102_150405.000000000")+"_"+filepath.Base(filePath))
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", Error.New("failed to copy file to archive: %v", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", Error.New("failed to remove original file: %v", err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// NameParams are the values of the output name placeholders.
type NameParams struct {
	RunID    string
	Time     time.Time
	Original string
}

// GenerateOutputFileName expands the placeholders of a file name pattern.
//
// PARAMETERS:
//   - pattern: The file name pattern.
//     Placeholders:
//       {uuid}      - the run ID
//       {timestamp} - run time (YYYYMMDD_HHMMSS)
//       {date}      - run date (YYYYMMDD)
//       {original}  - input file name without extension
//   - params: The placeholder values.
//   - extension: Appended unless the name already ends with it.
//
// EXAMPLE:
//   pattern: "{original}_{date}"
//   params:  {Original: "data.csv", Time: 2024-01-15 14:30:22}
//   output:  "data_20240115.json"
func GenerateOutputFileName(pattern string, params NameParams, extension string) string {
	original := filepath.Base(params.Original)
	original = strings.TrimSuffix(original, filepath.Ext(original))

	replacer := strings.NewReplacer(
		"{uuid}", params.RunID,
		"{timestamp}", params.Time.Format("20060102_150405"),
		"{date}", params.Time.Format("20060102"),
		"{original}", original,
	)
	result := replacer.Replace(pattern)

	if !strings.HasSuffix(strings.ToLower(result), strings.ToLower(extension)) {
		result += extension
	}
	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one line of an error log.
type ErrorLogEntry struct {
	Line    int
	Field   string
	Kind    string
	Message string
	Value   string
}

// WriteErrorLog writes error entries to a timestamped text file.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - outputDir: The directory to write the log file to.
//   - source: The input file the errors came from.
//   - runID: The run ID. It is part of the file name, so runs started in
//     the same second never share a log.
//   - now: The run time used in the file name and header.
//
// RETURNS:
//   - The path to the error log file, empty when there was nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, source, runID string, now time.Time) (_ string, err error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir,
		fmt.Sprintf("error_log_%s_%s.txt", now.Format("20060102_150405"), runID))

	file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", Error.New("failed to create error log: %v", err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(file.Close())) }()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "CSV Parser - Error Log\n"+
		"Generated: %s\n"+
		"Run: %s\n"+
		"Source: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), runID, source, len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Line:    %d\n"+
			"  Kind:    %s\n"+
			"  Message: %s\n",
			i+1, entry.Line, entry.Kind, entry.Message)
		if entry.Field != "" {
			fmt.Fprintf(writer, "  Field:   %s\n", entry.Field)
		}
		if entry.Value != "" {
			fmt.Fprintf(writer, "  Value:   %s\n", entry.Value)
		}
		fmt.Fprintln(writer)
	}

	fmt.Fprint(writer, "================================================================================\n"+
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", Error.New("failed to flush error log: %v", err)
	}

	return logPath, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, in.Close()) }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, out.Close()) }()

	_, err = io.Copy(out, in)
	return err
}

// FileExists reports whether a path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
