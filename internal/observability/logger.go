// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability builds the structured logger and run metrics used by
// the reconciliation pipeline.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// DefaultLoggingConfig logs info and above to stderr in console format so
// stdout stays free for --dry-run rows.
func DefaultLoggingConfig() types.LoggingConfig {
	return types.LoggingConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// NewLogger creates a zerolog logger from cfg.
func NewLogger(cfg types.LoggingConfig) zerolog.Logger {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}
	return NewLoggerTo(cfg, out)
}

// NewLoggerTo creates a zerolog logger writing to w. The Output field of cfg
// is ignored.
func NewLoggerTo(cfg types.LoggingConfig, w io.Writer) zerolog.Logger {
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(parseLevel(cfg.Level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithRunContext adds the run identifier to a logger.
func WithRunContext(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithRecordContext adds source-record fields to a logger.
func WithRecordContext(logger zerolog.Logger, rec types.SourceRecord) zerolog.Logger {
	ctx := logger.With().Str("source_id", rec.ID)
	if rec.DOI != "" {
		ctx = ctx.Str("doi", rec.DOI)
	}
	if rec.PMID != "" {
		ctx = ctx.Str("pmid", rec.PMID)
	}
	return ctx.Logger()
}
