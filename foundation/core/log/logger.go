// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the Logger type: leveled, structured, immutable
//              through With* clones, and aware of the koi error type.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-16 v0.2.0: Removed async mode and caller capture, stderr default

package log

import (
	"io"
	"os"
	"sync"
	"time"

	mdwerror "github.com/msto63/koi/foundation/core/error"
)

// Logger represents a structured logger with contextual information
type Logger struct {
	level         Level
	formatter     Formatter
	output        io.Writer
	name          string
	contextFields Fields

	// guards writes to output; shared between clones
	writeMu *sync.Mutex
}

// Config represents logger configuration
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Name   string
}

// New creates a new logger with default configuration
func New() *Logger {
	return &Logger{
		level:         DefaultLevel(),
		formatter:     NewJSONFormatter(),
		output:        os.Stderr,
		contextFields: make(Fields),
		writeMu:       &sync.Mutex{},
	}
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	logger := &Logger{
		level:         config.Level,
		formatter:     GetFormatter(config.Format),
		output:        config.Output,
		name:          config.Name,
		contextFields: make(Fields),
		writeMu:       &sync.Mutex{},
	}
	if logger.output == nil {
		logger.output = os.Stderr
	}
	return logger
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWithConfig(Config{Level: LevelFatal + 1, Output: io.Discard})
}

// WithLevel returns a clone with the given minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := l.clone()
	clone.level = level
	return clone
}

// WithFormat returns a clone using the given format
func (l *Logger) WithFormat(format Format) *Logger {
	clone := l.clone()
	clone.formatter = GetFormatter(format)
	return clone
}

// WithOutput returns a clone writing to output
func (l *Logger) WithOutput(output io.Writer) *Logger {
	clone := l.clone()
	clone.output = output
	clone.writeMu = &sync.Mutex{}
	return clone
}

// WithName returns a clone with the given logger name
func (l *Logger) WithName(name string) *Logger {
	clone := l.clone()
	clone.name = name
	return clone
}

// WithField returns a clone that adds key=value to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.clone()
	clone.contextFields[key] = value
	return clone
}

// WithFields returns a clone that adds fields to every entry
func (l *Logger) WithFields(fields Fields) *Logger {
	clone := l.clone()
	for k, v := range fields {
		clone.contextFields[k] = v
	}
	return clone
}

func (l *Logger) Trace(message string, fields ...Fields) { l.log(LevelTrace, message, nil, fields...) }
func (l *Logger) Debug(message string, fields ...Fields) { l.log(LevelDebug, message, nil, fields...) }
func (l *Logger) Info(message string, fields ...Fields)  { l.log(LevelInfo, message, nil, fields...) }
func (l *Logger) Warn(message string, fields ...Fields)  { l.log(LevelWarn, message, nil, fields...) }
func (l *Logger) Error(message string, fields ...Fields) { l.log(LevelError, message, nil, fields...) }

// Fatal logs a fatal level message and exits the program
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	os.Exit(1)
}

// ErrorWithErr logs an error with an error object
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs a warning with an error object
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs err at a level derived from its severity
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	code := mdwerror.GetCode(err)
	if code == mdwerror.CodeUnknown {
		l.log(LevelError, err.Error(), err)
		return
	}

	fields := Fields{
		"error_code":     code,
		"error_severity": mdwerror.GetSeverity(err).String(),
	}
	level := LevelError
	switch mdwerror.GetSeverity(err) {
	case mdwerror.SeverityLow:
		level = LevelInfo
	case mdwerror.SeverityMedium:
		level = LevelWarn
	}
	l.log(level, err.Error(), err, fields)
}

// StartTimer creates and starts a new performance timer
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// IsLevelEnabled returns true if the given level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.level)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	return l.level
}

func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	var merged Fields
	if len(fields) > 0 {
		merged = make(Fields)
		for _, fs := range fields {
			for k, v := range fs {
				merged[k] = v
			}
		}
	}
	l.logEntry(level, message, err, 0, merged)
}

func (l *Logger) logEntry(level Level, message string, err error, d time.Duration, fields Fields) {
	if !level.ShouldLog(l.level) {
		return
	}

	entry := NewEntry(level, message)
	entry.Logger = l.name
	entry.Error = err
	entry.Duration = d
	for k, v := range l.contextFields {
		entry.Fields[k] = v
	}
	for k, v := range fields {
		entry.Fields[k] = v
	}

	formatted, ferr := l.formatter.Format(entry)
	if ferr != nil {
		return
	}
	l.writeMu.Lock()
	l.output.Write(formatted)
	l.writeMu.Unlock()
}

func (l *Logger) clone() *Logger {
	clone := &Logger{
		level:         l.level,
		formatter:     l.formatter,
		output:        l.output,
		name:          l.name,
		contextFields: make(Fields, len(l.contextFields)),
		writeMu:       l.writeMu,
	}
	for k, v := range l.contextFields {
		clone.contextFields[k] = v
	}
	return clone
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New()
)

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}
