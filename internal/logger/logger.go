// Package logger builds the application's structured logger.
//
// One *slog.Logger is created at startup and handed to every component that
// logs. Components fall back to Discard when given nil.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDir is where log files are written when no directory is configured.
const DefaultDir = "logs"

// Options configures New.
type Options struct {
	// Dir receives chat_app_<YYYY-MM-DD>.log. Empty disables the file sink.
	Dir string
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Console receives the same records as the file. Nil means stderr.
	Console io.Writer
	// Now dates the log file. Nil means time.Now.
	Now func() time.Time
}

// Logger is a slog logger plus the file it writes to, if any.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New creates a logger writing text records to the console and, when
// opts.Dir is set, to a dated file in that directory.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	out := console
	var file *os.File
	if opts.Dir != "" {
		f, err := OpenFile(opts.Dir, now())
		if err != nil {
			return nil, err
		}
		file = f
		out = io.MultiWriter(console, f)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return &Logger{Logger: slog.New(handler), file: file}, nil
}

// FileName returns the log file name for day.
func FileName(day time.Time) string {
	return "chat_app_" + day.Format("2006-01-02") + ".log"
}

// OpenFile opens the log file for day in dir for appending, creating dir if
// needed.
func OpenFile(dir string, day time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, FileName(day))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path built from config
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Path returns the log file path, or "" without a file sink.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns log, or Discard if log is nil.
func OrDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return Discard()
	}
	return log
}
