package logging

import (
	"os"
	"sync/atomic"
)

// The process-global logger. Components that are not handed a logger
// explicitly fall back to it.
var globalLogger atomic.Pointer[Logger]

func init() {
	globalLogger.Store(DefaultLogger())
}

// SetGlobal replaces the global logger.
func SetGlobal(l *Logger) {
	globalLogger.Store(l)
}

// Global returns the global logger.
func Global() *Logger {
	return globalLogger.Load()
}

// Configure creates a logger from config values, installs it as the global
// logger and returns it. Typically called once during startup.
func Configure(level, format string) *Logger {
	l := New(Config{
		Level:     ParseLevel(level),
		Format:    ParseFormat(format),
		Output:    os.Stderr,
		AddCaller: ParseLevel(level) == LevelDebug,
	})
	SetGlobal(l)
	return l
}

// Debug logs a debug message to the global logger.
func Debug(msg string) { Global().Debug(msg) }

// Debugf logs a debug message with fields to the global logger.
func Debugf(msg string, fields map[string]any) { Global().Debugf(msg, fields) }

// Info logs an info message to the global logger.
func Info(msg string) { Global().Info(msg) }

// Infof logs an info message with fields to the global logger.
func Infof(msg string, fields map[string]any) { Global().Infof(msg, fields) }

// Warn logs a warning message to the global logger.
func Warn(msg string) { Global().Warn(msg) }

// Warnf logs a warning message with fields to the global logger.
func Warnf(msg string, fields map[string]any) { Global().Warnf(msg, fields) }

// Error logs an error message to the global logger.
func Error(msg string) { Global().Error(msg) }

// Errorf logs an error message with fields to the global logger.
func Errorf(msg string, fields map[string]any) { Global().Errorf(msg, fields) }
