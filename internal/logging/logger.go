// Package logging provides structured, leveled logging for stashd.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents the severity of a log message.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel converts a string to a Level. Unknown strings map to info.
func ParseLevel(s string) Level {
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// Format selects the output encoding for log entries.
type Format int

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = iota
	// FormatText writes human-readable key=value lines.
	FormatText
)

// ParseFormat converts a string to a Format. Unknown strings map to JSON.
func ParseFormat(s string) Format {
	if s == "text" {
		return FormatText
	}
	return FormatJSON
}

// Entry is a single log entry as it appears on the wire.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	File      string         `json:"file,omitempty"`
	Line      int            `json:"line,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes structured log entries at or above its configured level.
// A Logger is safe for concurrent use; derived loggers from With share the
// output writer with their parent.
type Logger struct {
	level     atomic.Int32
	format    Format
	addCaller bool
	fields    map[string]any

	mu  *sync.Mutex
	out io.Writer
}

// Config holds configuration for a Logger.
type Config struct {
	Level     Level
	Format    Format
	Output    io.Writer
	AddCaller bool
}

// New creates a Logger with the given configuration.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := &Logger{
		format:    cfg.Format,
		addCaller: cfg.AddCaller,
		fields:    map[string]any{},
		mu:        &sync.Mutex{},
		out:       out,
	}
	l.level.Store(int32(cfg.Level))
	return l
}

// DefaultLogger returns a logger with default settings (info, JSON, stderr).
func DefaultLogger() *Logger {
	return New(Config{Level: LevelInfo, Format: FormatJSON, Output: os.Stderr})
}

// SetLevel updates the minimum logging level.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// GetLevel returns the current logging level.
func (l *Logger) GetLevel() Level {
	return Level(l.level.Load())
}

// With returns a derived Logger that includes the given fields in every
// entry, on top of the fields already attached to l.
func (l *Logger) With(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	child := &Logger{
		format:    l.format,
		addCaller: l.addCaller,
		fields:    merged,
		mu:        l.mu,
		out:       l.out,
	}
	child.level.Store(l.level.Load())
	return child
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.log(LevelDebug, msg, nil) }

// Debugf logs a debug message with fields.
func (l *Logger) Debugf(msg string, fields map[string]any) { l.log(LevelDebug, msg, fields) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.log(LevelInfo, msg, nil) }

// Infof logs an info message with fields.
func (l *Logger) Infof(msg string, fields map[string]any) { l.log(LevelInfo, msg, fields) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.log(LevelWarn, msg, nil) }

// Warnf logs a warning message with fields.
func (l *Logger) Warnf(msg string, fields map[string]any) { l.log(LevelWarn, msg, fields) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.log(LevelError, msg, nil) }

// Errorf logs an error message with fields.
func (l *Logger) Errorf(msg string, fields map[string]any) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, extra map[string]any) {
	if level < l.GetLevel() {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Message:   msg,
	}

	if l.addCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.File = file
			entry.Line = line
		}
	}

	if n := len(l.fields) + len(extra); n > 0 {
		entry.Fields = make(map[string]any, n)
		for k, v := range l.fields {
			entry.Fields[k] = v
		}
		for k, v := range extra {
			entry.Fields[k] = v
		}
	}

	var line []byte
	if l.format == FormatText {
		line = renderText(entry)
	} else {
		line, _ = json.Marshal(entry)
		line = append(line, '\n')
	}

	l.mu.Lock()
	_, _ = l.out.Write(line)
	l.mu.Unlock()
}

func renderText(e Entry) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s [%s] %s", e.Timestamp.Format(time.RFC3339), e.Level, e.Message)
	if e.File != "" {
		fmt.Fprintf(&buf, " file=%s:%d", e.File, e.Line)
	}
	for k, v := range e.Fields {
		if s, ok := v.(string); ok {
			fmt.Fprintf(&buf, " %s=%s", k, s)
		} else {
			data, _ := json.Marshal(v)
			fmt.Fprintf(&buf, " %s=%s", k, data)
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
