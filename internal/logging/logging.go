// Package logging builds the zap logger of the command line tool.
package logging

import (
	"os"
	"path/filepath"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
)

// New builds a logger writing to stderr at the configured level. When a log
// file is configured, debug output is additionally written to it as JSON.
// verbose lowers the stderr level to debug.
func New(settings config.LoggingSettings, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(settings.Level)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	stderrEncoder := zap.NewDevelopmentEncoderConfig()
	if settings.Encoding == "console" {
		stderrEncoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		stderrEncoder = zap.NewProductionEncoderConfig()
		stderrEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	stderrLog, err := (zap.Config{
		Level:         zap.NewAtomicLevelAt(level),
		Encoding:      settings.Encoding,
		EncoderConfig: stderrEncoder,
		OutputPaths:   []string{"stderr"},
	}).Build()
	if err != nil {
		return nil, errs.Wrap(err)
	}

	if settings.File == "" {
		return stderrLog, nil
	}

	if err := os.MkdirAll(filepath.Dir(settings.File), 0755); err != nil {
		return nil, errs.Wrap(err)
	}
	logPath, err := filepath.Abs(settings.File)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	fileEncoder := zap.NewProductionEncoderConfig()
	fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
	fileLog, err := (zap.Config{
		Level:         zap.NewAtomicLevelAt(zap.DebugLevel),
		Encoding:      "json",
		EncoderConfig: fileEncoder,
		OutputPaths:   []string{logPath},
	}).Build()
	if err != nil {
		return nil, errs.Wrap(err)
	}

	return zap.New(zapcore.NewTee(stderrLog.Core(), fileLog.Core())), nil
}
