// Package logging configures the process-wide slog logger and owns the log
// lines a build emits. Logs go to stderr so stdout stays free for reports.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/pipeline"
)

var logger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

// Level is a minimum log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format selects the handler.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// ParseLevel maps "debug", "info", "warn" or "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, errors.NewValidation("log-level", "unknown level "+s)
}

// ParseFormat maps "json" or "text" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	}
	return FormatJSON, errors.NewValidation("log-format", "unknown format "+s)
}

// InitLogger points the logger at stderr.
func InitLogger(level Level, format Format) {
	InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo points the logger at w. Timestamps are RFC 3339 in both
// formats.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: level.slog(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if format == FormatText {
		h = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// SourceRejected logs an input dropped by the detection pre-pass.
func SourceRejected(path string, err error) {
	logger.Warn("source_rejected", "path", path, "error", err.Error())
}

// JobStarted logs the start of a build job.
func JobStarted(kind pipeline.Kind, runID string, sources []string) {
	logger.Info("job_started", "run_id", runID, "kind", string(kind), "sources", sources)
}

// JobFinished logs the outcome of a build job. Failed and cancelled jobs are
// logged at error level.
func JobFinished(r *pipeline.JobReport) {
	l := logger.With("run_id", r.RunID)
	args := []any{
		"kind", string(r.Kind),
		"status", string(r.Status),
		"rows_in", r.RowsIn,
		"rows_out", r.RowsOut,
		"dropped", r.Dropped(),
	}
	if len(r.DroppedByReason) > 0 {
		args = append(args, "dropped_by_reason", r.DroppedByReason)
	}
	if len(r.DropSamples) > 0 {
		args = append(args, "drop_samples", r.DropSamples)
	}
	if r.OK() {
		l.Info("job_finished", append(args, "outputs", r.OutputPaths)...)
		return
	}
	l.Error("job_finished", append(args, "error", r.Error)...)
}

// Hooks returns pipeline hooks that log job starts and finishes.
func Hooks() pipeline.Hooks {
	return pipeline.Hooks{
		JobStarted:  JobStarted,
		JobFinished: JobFinished,
	}
}
