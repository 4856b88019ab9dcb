// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default logging configuration constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config selects the log level and an optional rotated log file.
// Without File.Path, logs go to stderr as text.
type Config struct {
	Level string     `mapstructure:"level"`
	File  FileConfig `mapstructure:"file"`
}

// FileConfig follows lumberjack rotation semantics.
type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // megabytes before rotation (default 10)
	MaxBackups int    `mapstructure:"max_backups"`  // number of backups to keep (default 3)
	MaxAgeDays int    `mapstructure:"max_age_days"` // days to keep (default 7)
	Compress   bool   `mapstructure:"compress"`     // Gzip rotated files
}

// ParseLevel maps debug/info/warn/error to a slog level. Empty means warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Writer returns the rotating file writer, or nil when no path is set.
func (c FileConfig) Writer() io.WriteCloser {
	if c.Path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   c.Path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// NewHandler builds the handler for cfg. stderr receives text output when no
// file is configured; it is colored only when stderr is a terminal.
func NewHandler(cfg Config, stderr io.Writer) (slog.Handler, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if w := cfg.File.Writer(); w != nil {
		return slog.NewJSONHandler(w, opts), w, nil
	}
	if f, ok := stderr.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return NewColorTextHandler(stderr, opts, false), nopCloser{}, nil
	}
	return slog.NewTextHandler(stderr, opts), nopCloser{}, nil
}

// Setup installs the handler for cfg as the slog default. Close the returned
// closer to flush the log file.
func Setup(cfg Config, stderr io.Writer) (io.Closer, error) {
	h, closer, err := NewHandler(cfg, stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(h))
	return closer, nil
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
