package eswio

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWait
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWait:
		return "WAIT"
	case LevelSuccess:
		return "DONE"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogFormat defines the output format for log messages
type LogFormat int

const (
	LogFormatBadge  LogFormat = iota // " WAIT " on a colored background
	LogFormatTagged                  // [WAIT] [WARN] [ERROR]
	LogFormatPlain                   // No prefix
)

// Logger writes leveled messages. Warnings and errors go to stderr.
type Logger struct {
	mu           sync.Mutex
	io           *IOManager
	format       LogFormat
	debug        bool
	withTime     bool
	timeFormat   string
	errorsStderr bool
	theme        Theme
}

// NewLogger creates a new logger bound to the given IOManager
func NewLogger(io *IOManager) *Logger {
	return &Logger{
		io:           io,
		format:       LogFormatBadge,
		errorsStderr: true,
		timeFormat:   "15:04:05",
		theme:        DefaultTheme(io),
	}
}

// IO returns the manager the logger writes through.
func (l *Logger) IO() *IOManager { return l.io }

// WithFormat sets the log format and returns the logger for chaining
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.format = format
	return l
}

// WithDebug enables debug messages.
func (l *Logger) WithDebug(enabled bool) *Logger {
	l.debug = enabled
	return l
}

// DebugEnabled reports whether debug messages are printed.
func (l *Logger) DebugEnabled() bool { return l.debug }

// WithTimestamp enables or disables timestamp in log output
func (l *Logger) WithTimestamp(enabled bool) *Logger {
	l.withTime = enabled
	return l
}

// WithTimeFormat sets the time format (Go time format string)
func (l *Logger) WithTimeFormat(format string) *Logger {
	l.timeFormat = format
	return l
}

// ErrorsToStderr controls whether errors and warnings go to stderr
func (l *Logger) ErrorsToStderr(enabled bool) *Logger {
	l.errorsStderr = enabled
	return l
}

// WithTheme sets a custom theme for semantic colors
func (l *Logger) WithTheme(theme Theme) *Logger {
	l.theme = theme
	return l
}

// Log outputs a log message at the specified level
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	if level == LevelDebug && !l.debug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	output := l.formatMessage(level, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.selectWriter(level), output)
}

func (l *Logger) formatMessage(level LogLevel, msg string) string {
	if strings.TrimSpace(msg) == "" {
		return msg
	}
	if l.withTime {
		msg = l.io.Faint(time.Now().Format(l.timeFormat)) + " " + msg
	}

	switch l.format {
	case LogFormatPlain:
		return msg
	case LogFormatTagged:
		return NewStyle().Fg(l.levelColor(level)).Sprint(l.io, "["+level.String()+"]") + " " + msg
	default:
		return Badge(l.io, level.String(), l.badgeColor(level)) + " " + msg
	}
}

func (l *Logger) levelColor(level LogLevel) ColorSpec {
	switch level {
	case LevelDebug:
		return l.theme.Debug
	case LevelWait:
		return l.theme.Info
	case LevelSuccess:
		return l.theme.Success
	case LevelWarning:
		return l.theme.Warning
	case LevelError:
		return l.theme.Error
	default:
		return l.theme.Primary
	}
}

// Badges use the basic palette so black text stays readable.
func (l *Logger) badgeColor(level LogLevel) ColorSpec {
	switch level {
	case LevelDebug:
		return Magenta
	case LevelWait:
		return Cyan
	case LevelSuccess:
		return Green
	case LevelWarning:
		return Yellow
	case LevelError:
		return Red
	default:
		return Blue
	}
}

func (l *Logger) selectWriter(level LogLevel) io.Writer {
	if l.errorsStderr && (level == LevelError || level == LevelWarning) {
		return l.io.Err()
	}
	return l.io.Out()
}

// Debug logs when debug output is enabled.
func (l *Logger) Debug(format string, args ...any) { l.Log(LevelDebug, format, args...) }

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) { l.Log(LevelInfo, format, args...) }

// Wait logs a progress message.
func (l *Logger) Wait(format string, args ...any) { l.Log(LevelWait, format, args...) }

// Success logs a completion message.
func (l *Logger) Success(format string, args ...any) { l.Log(LevelSuccess, format, args...) }

// Warning logs to stderr.
func (l *Logger) Warning(format string, args ...any) { l.Log(LevelWarning, format, args...) }

// Error logs to stderr.
func (l *Logger) Error(format string, args ...any) { l.Log(LevelError, format, args...) }

// Raw writes text to stdout as is.
func (l *Logger) Raw(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.io.Out(), text)
}
