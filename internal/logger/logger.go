package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// Output formats accepted by NewFromConfig.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a console logger at info level.
func New() zerolog.Logger {
	return NewFromConfig("", "")
}

// NewWithWriter creates a JSON logger that writes to w.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// NewFromConfig creates a stdout logger from LOG_LEVEL / LOG_FORMAT style
// settings. Unknown or empty values fall back to info and console.
func NewFromConfig(level, format string) zerolog.Logger {
	return NewFromConfigWithWriter(os.Stdout, level, format)
}

// NewFromConfigWithWriter is NewFromConfig with an explicit destination.
func NewFromConfigWithWriter(w io.Writer, level, format string) zerolog.Logger {
	var out io.Writer = w
	if strings.ToLower(strings.TrimSpace(format)) != FormatJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Caller().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}

// WithOrder tags a logger with a purchase order's identity.
func WithOrder(logger zerolog.Logger, poNumber, source string) zerolog.Logger {
	ctx := logger.With()
	if poNumber != "" {
		ctx = ctx.Str("po_number", poNumber)
	}
	if source != "" {
		ctx = ctx.Str("source", source)
	}
	return ctx.Logger()
}
