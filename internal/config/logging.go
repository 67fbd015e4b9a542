package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName is attached to every log line written by NewLogger
const ServiceName = "fct-api"

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogLevel returns the log level from LOG_LEVEL, INFO when unset or invalid
func GetLogLevel() slog.Level {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

// jsonLogs reports whether LOG_FORMAT asks for JSON. Anything but "text" does.
func jsonLogs() bool {
	return !strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text")
}

// NewLogger creates the process logger.
// HTTP mode writes JSON to stdout unless LOG_FORMAT=text.
// Stdio mode always writes text to stderr because stdout carries MCP.
func NewLogger(isStdioMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: GetLogLevel()}

	var handler slog.Handler
	switch {
	case isStdioMode:
		handler = slog.NewTextHandler(os.Stderr, opts)
	case jsonLogs():
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", ServiceName)
}

// NewTextLogger creates a text logger on output.
// Used by the validate and export commands, whose output is read by people.
func NewTextLogger(output io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: GetLogLevel()}))
}

// NewTestLogger creates a logger for tests. An empty level falls back to LOG_LEVEL.
func NewTestLogger(output io.Writer, level string) *slog.Logger {
	logLevel := GetLogLevel()
	if level != "" {
		logLevel = parseLogLevel(level)
	}

	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
}
