// Package logger is a leveled front-end over a line sink such as hal.Logger.
package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the severity level of a log message.
type Level string

const (
	Debug Level = "DEBUG"
	Info  Level = "INFO"
	Warn  Level = "WARN"
	Error Level = "ERROR"
)

// levelPriority returns the numeric priority of a log level (higher = more severe)
func levelPriority(level Level) int {
	switch level {
	case Debug:
		return 0
	case Info:
		return 1
	case Warn:
		return 2
	case Error:
		return 3
	default:
		return 1
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Anything
// else is Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Sink receives formatted lines.
type Sink interface {
	WriteLineString(s string)
}

// Logger filters by level and writes "timestamp [LEVEL] message" lines.
type Logger struct {
	mu    sync.Mutex
	sink  Sink
	min   Level
	clock clockwork.Clock
}

// New returns a Logger writing to sink. A nil clock selects the real clock.
func New(sink Sink, level Level, clock clockwork.Clock) *Logger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Logger{sink: sink, min: level, clock: clock}
}

// SetLevel sets the minimum level written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.min = level
	l.mu.Unlock()
}

// Enabled reports whether level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return levelPriority(level) >= levelPriority(l.min)
}

// Log writes a formatted message at the specified level.
func (l *Logger) Log(level Level, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, v...)
	timestamp := l.clock.Now().Format(time.RFC3339)
	l.sink.WriteLineString(fmt.Sprintf("%s [%s] %s", timestamp, level, msg))
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.Log(Debug, format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.Log(Info, format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.Log(Warn, format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.Log(Error, format, v...) }

// Rotating returns a size-rotated log file writer.
func Rotating(path string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     28, // days
		Compress:   true,
	}
}
