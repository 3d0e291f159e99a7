package common

import (
	"io"
	"log/slog"
	"os"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a textual level to LogLevel. Unknown values return ok=false and LogLevelInfo.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch s {
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "info", "":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	default:
		return LogLevelInfo, false
	}
}

// Logger provides a centralized logging interface for the scraper
type Logger struct {
	*slog.Logger
	level LogLevel
}

// NewLogger creates a new structured logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, level, false)
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, level, true)
}

// NewLoggerTo creates a logger writing to w. String attributes pass through the
// global masker before they reach the handler.
func NewLoggerTo(w io.Writer, level LogLevel, json bool) *Logger {
	opts := &slog.HandlerOptions{
		Level: level.ToSlogLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindString && IsMaskingEnabled() {
				return slog.String(a.Key, globalMasker.MaskValue(a.Key, a.Value.String()))
			}
			return a
		},
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithTemplate returns a logger with request template context
func (l *Logger) WithTemplate(api, endpoint string) *Logger {
	return l.with("api", api, "endpoint", endpoint)
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(driver string) *Logger {
	return l.with("store", driver)
}

// WithRequest returns a logger with HTTP request context
func (l *Logger) WithRequest(method, url string) *Logger {
	return l.with("method", method, "url", url)
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger and makes it the slog default.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
	slog.SetDefault(logger.Logger)
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}
