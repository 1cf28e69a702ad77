// Package logging provides the leveled key/value logger used across the
// module. Output goes to stderr by default because stdout carries the MCP
// protocol.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level orders log severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a name (debug, info, warn, error) to a Level. Unknown
// names yield LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// Logger provides structured logging with a component prefix
type Logger struct {
	prefix string
	level  atomic.Int32
	logger *log.Logger
}

// NewLogger creates a logger writing to stderr.
func NewLogger(prefix string) *Logger {
	return New(os.Stderr, prefix, LevelInfo)
}

// New creates a logger writing to w at the given minimum level.
func New(w io.Writer, prefix string, level Level) *Logger {
	l := &Logger{
		prefix: prefix,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
	l.level.Store(int32(level))
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "discard", LevelError+1)
}

// With returns a logger sharing the output and level of l under a
// sub-component prefix.
func (l *Logger) With(component string) *Logger {
	child := &Logger{
		prefix: l.prefix + "." + component,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s.%s] ", l.prefix, component), l.logger.Flags()),
	}
	child.level.Store(l.level.Load())
	return child
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return int32(level) >= l.level.Load()
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	var kv strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&kv, " %v=<missing>", keysAndValues[i])
		}
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
