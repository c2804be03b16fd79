// Package logging provides the structured log port injected into the
// facade. Nothing here is wired at package load time; callers construct
// a Logger and pass it down.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one structured log line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     Level          `json:"level"`
	Component string         `json:"component"`
	RequestID string         `json:"request_id,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes JSON log lines to one or more sinks. The mutex is
// shared with child loggers so writes to common sinks never interleave.
type Logger struct {
	component string
	mu        *sync.Mutex
	sinks     []io.Writer
	file      *lumberjack.Logger
}

// New creates a logger for a component writing to stderr. If filePath
// is non-empty, lines are also appended to a size-rotated log file.
func New(component, filePath string) *Logger {
	l := &Logger{
		component: component,
		mu:        &sync.Mutex{},
		sinks:     []io.Writer{os.Stderr},
	}
	if filePath != "" {
		l.file = &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		l.sinks = append(l.sinks, l.file)
	}
	return l
}

// NewWriter creates a logger writing to the given sink only. Used by
// tests and embedded callers.
func NewWriter(component string, w io.Writer) *Logger {
	return &Logger{component: component, mu: &sync.Mutex{}, sinks: []io.Writer{w}}
}

// Component returns a child logger with a different component label
// sharing the same sinks and write lock.
func (l *Logger) Component(name string) *Logger {
	return &Logger{component: name, mu: l.mu, sinks: l.sinks, file: nil}
}

// Info logs at INFO level.
func (l *Logger) Info(requestID, message string, fields map[string]any) {
	l.log(LevelInfo, requestID, message, fields)
}

// Warn logs at WARN level.
func (l *Logger) Warn(requestID, message string, fields map[string]any) {
	l.log(LevelWarn, requestID, message, fields)
}

// Error logs at ERROR level.
func (l *Logger) Error(requestID, message string, fields map[string]any) {
	l.log(LevelError, requestID, message, fields)
}

func (l *Logger) log(level Level, requestID, message string, fields map[string]any) {
	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Component: l.component,
		RequestID: requestID,
		Message:   message,
		Fields:    fields,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: marshal entry: %v\n", err)
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sink := range l.sinks {
		_, _ = sink.Write(line)
	}
}

// Close releases the rotated file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
