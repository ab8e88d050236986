package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format is a log output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level written.
	Level Level

	// Format applies to Output.
	Format Format

	// Output defaults to os.Stderr.
	Output io.Writer

	// Mirror, when set, also receives every record as JSON lines. The
	// server uses it for the log file.
	Mirror io.Writer

	// AddSource adds the source file and line to records.
	AddSource bool
}

// DefaultConfig returns info level text output on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a logger from cfg.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	if cfg.Mirror != nil {
		handler = Tee(handler, slog.NewJSONHandler(cfg.Mirror, opts))
	}
	return slog.New(handler)
}

// Nop returns a logger that discards all output.
// Components default to it when no logger is configured.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel parses "debug", "info", "warn"/"warning" or "error" in any
// case. The empty string is info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
}

// ParseFormat parses "text" or "json" in any case. The empty string is
// text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q (want text or json)", s)
}
