// Package logger builds the process zerolog logger, optionally teeing into
// a per-session log file named after the symbol and interval.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Level    string    // zerolog level name (default: info)
	Console  bool      // human-readable output instead of JSON
	Out      io.Writer // default: os.Stderr
	Dir      string    // log file directory, empty = no file
	Symbol   string    // used in the file name
	Interval string    // used in the file name
	Now      time.Time // file date, zero = time.Now()
}

// Logger is a zerolog logger plus the file it may write to.
type Logger struct {
	zerolog.Logger
	file *os.File
	path string
}

// New creates a logger. With Dir set, entries also go to
// <dir>/<symbol>_<interval>_<date>.log as JSON.
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	l := &Logger{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.path = filepath.Join(opts.Dir, FileName(opts.Symbol, opts.Interval, opts.Now))
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		out = zerolog.MultiLevelWriter(out, file)
	}

	l.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	if opts.Symbol != "" {
		l.Logger = l.Logger.With().Str("symbol", opts.Symbol).Logger()
	}
	return l, nil
}

// FileName returns the session log file name for symbol and interval.
func FileName(symbol, interval string, now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if symbol == "" {
		symbol = "session"
	}
	if interval == "" {
		interval = "all"
	}
	return fmt.Sprintf("%s_%s_%s.log", symbol, interval, now.Format("2006-01-02"))
}

// Path returns the log file path, empty when not logging to a file.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
