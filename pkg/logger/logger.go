package logger

import (
	"log"
	"sync"

	"github.com/fatih/color"
	"github.com/schedpay/relayer/pkg/models"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

var statePrefixes = map[models.ExecutionState]string{
	models.StateDiscovered:       "[DISCOVERED] ",
	models.StateWaitingForWindow: "[WAITING]    ",
	models.StateSimulating:       "[SIMULATE]   ",
	models.StateSubmitting:       "[SUBMIT]     ",
	models.StateRetryBackoff:     "[BACKOFF]    ",
	models.StateConfirmed:        "[CONFIRMED]  ",
	models.StateAlreadyCompleted: "[COMPLETED]  ",
	models.StateExpired:          "[EXPIRED]    ",
}

var stateColors = map[models.ExecutionState]color.Attribute{
	models.StateDiscovered:       color.FgHiBlue,
	models.StateWaitingForWindow: color.FgYellow,
	models.StateSimulating:       color.FgCyan,
	models.StateSubmitting:       color.FgMagenta,
	models.StateRetryBackoff:     color.FgHiYellow,
	models.StateConfirmed:        color.FgGreen,
	models.StateAlreadyCompleted: color.FgHiGreen,
	models.StateExpired:          color.FgRed,
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Info logs an informational message.
	Info(format string, args ...interface{})
	InfoWithState(state models.ExecutionState, format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})
	ErrorWithState(state models.ExecutionState, format string, args ...interface{})

	// Debug logs a debug message.
	Debug(format string, args ...interface{})
	DebugWithState(state models.ExecutionState, format string, args ...interface{})

	// Notice logs a notice message.
	Notice(format string, args ...interface{})
	NoticeWithState(state models.ExecutionState, format string, args ...interface{})
}

// EmptyLogger is a simple implementation of the Logger interface that does nothing.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                                   {}
func (l *EmptyLogger) InfoWithState(_ models.ExecutionState, _ string, _ ...interface{}) {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                                  {}
func (l *EmptyLogger) ErrorWithState(_ models.ExecutionState, _ string, _ ...interface{}) {
}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                                  {}
func (l *EmptyLogger) DebugWithState(_ models.ExecutionState, _ string, _ ...interface{}) {
}
func (l *EmptyLogger) Notice(_ string, _ ...interface{}) {}
func (l *EmptyLogger) NoticeWithState(_ models.ExecutionState, _ string, _ ...interface{}) {
}

// StdLogger is a standard implementation of the Logger interface that logs messages to the console.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
	}
}

// formatMessage formats the log message with the appropriate log level, state prefix, and coloring if enabled.
func (l *StdLogger) formatMessage(level Level, state models.ExecutionState, withState bool, format string) string {
	var statePrefix string
	if withState {
		statePrefix = statePrefixes[state]
		if l.enableColoring {
			statePrefix = color.New(stateColors[state]).Sprint(statePrefix)
		}
	}

	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
	case ErrorLevel:
		levelStr = "[ERROR]  "
	}

	return levelStr + statePrefix + format
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= InfoLevel {
		log.Printf(l.formatMessage(InfoLevel, 0, false, format), args...)
	}
}

func (l *StdLogger) InfoWithState(state models.ExecutionState, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= InfoLevel {
		log.Printf(l.formatMessage(InfoLevel, state, true, format), args...)
	}
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= ErrorLevel {
		log.Printf(l.formatMessage(ErrorLevel, 0, false, format), args...)
	}
}

func (l *StdLogger) ErrorWithState(state models.ExecutionState, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= ErrorLevel {
		log.Printf(l.formatMessage(ErrorLevel, state, true, format), args...)
	}
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= DebugLevel {
		log.Printf(l.formatMessage(DebugLevel, 0, false, format), args...)
	}
}

func (l *StdLogger) DebugWithState(state models.ExecutionState, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= DebugLevel {
		log.Printf(l.formatMessage(DebugLevel, state, true, format), args...)
	}
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= NoticeLevel {
		log.Printf(l.formatMessage(NoticeLevel, 0, false, format), args...)
	}
}

func (l *StdLogger) NoticeWithState(state models.ExecutionState, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= NoticeLevel {
		log.Printf(l.formatMessage(NoticeLevel, state, true, format), args...)
	}
}
