// Package log provides the chainable, leveled logger used by every reflector
// component, trimmed from the teacher framework's multi-appender logging
// package down to what a single-process audio reflector needs: level gating,
// a handful of typed fields, and a console/writer appender.
package log

import "os"

// Logger is a minimal, level-gated structured logger. Unlike the teacher's
// full implementation it does not support hot-reloadable multi-appender fan
// out; the reflector only ever needs one sink at a time.
type Logger struct {
	level    Level
	appender Appender
	// onFatalFunc is overridable in tests so Fatal() doesn't os.Exit the test binary.
	onFatalFunc func()
}

func New(level Level, appender Appender) *Logger {
	if appender == nil {
		appender = NewConsoleAppender()
	}
	return &Logger{level: level, appender: appender}
}

func (l *Logger) onFatal() {
	if l.onFatalFunc != nil {
		l.onFatalFunc()
		return
	}
	os.Exit(1)
}

func (l *Logger) SetOnFatal(f func()) { l.onFatalFunc = f }

func (l *Logger) Trace() *Event { return newEvent(l, TraceLevel) }
func (l *Logger) Debug() *Event { return newEvent(l, DebugLevel) }
func (l *Logger) Info() *Event  { return newEvent(l, InfoLevel) }
func (l *Logger) Warn() *Event  { return newEvent(l, WarnLevel) }
func (l *Logger) Error() *Event { return newEvent(l, ErrorLevel) }
func (l *Logger) Fatal() *Event { return newEvent(l, FatalLevel) }

var defaultLogger = New(InfoLevel, NewConsoleAppender())

// SetDefault replaces the package-level default logger. Call once at startup.
func SetDefault(l *Logger) { defaultLogger = l }

func Default() *Logger { return defaultLogger }

func Trace() *Event { return defaultLogger.Trace() }
func Debug() *Event { return defaultLogger.Debug() }
func Info() *Event  { return defaultLogger.Info() }
func Warn() *Event  { return defaultLogger.Warn() }
func Error() *Event { return defaultLogger.Error() }
func Fatal() *Event { return defaultLogger.Fatal() }
