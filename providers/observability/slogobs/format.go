package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatText is slog's logfmt-style key=value output (default).
	FormatText Format = "text"

	// FormatJSON is one JSON object per record, for log aggregation.
	FormatJSON Format = "json"
)

// LevelTrace is the level used by Observer.Trace.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat parses a format string. Unknown values yield FormatText.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// ParseLevel parses a level name ("trace", "debug", "info", "warn", "error").
// Unknown values yield slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "trace":
		return LevelTrace
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

// GetFormatFromEnv reads DAGGO_LOG_FORMAT, falling back to LOG_FORMAT.
func GetFormatFromEnv() Format {
	if format := os.Getenv("DAGGO_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return ParseFormat(os.Getenv("LOG_FORMAT"))
}

// GetLevelFromEnv reads DAGGO_LOG_LEVEL, falling back to LOG_LEVEL.
func GetLevelFromEnv() slog.Level {
	if level := os.Getenv("DAGGO_LOG_LEVEL"); level != "" {
		return ParseLevel(level)
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}
