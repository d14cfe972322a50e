// File: entry.go
// Title: Log Entry
// Description: A single log record and the Fields map attached to it.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-16 v0.2.0: Dropped request/user correlation fields

package log

import (
	"time"
)

// Entry is one log record handed to a Formatter
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string
	Fields    Fields
	Error     error
	Duration  time.Duration
}

// Fields holds structured key/value data for a log entry
type Fields map[string]interface{}

// Field creates a single-entry Fields value
func Field(key string, value interface{}) Fields {
	return Fields{key: value}
}

// Err creates an error field
func Err(err error) Fields {
	if err == nil {
		return Fields{}
	}
	return Fields{"error": err.Error()}
}

// Merge returns a new Fields with other layered over f
func (f Fields) Merge(other Fields) Fields {
	out := make(Fields, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// NewEntry creates an entry stamped with the current time
func NewEntry(level Level, message string) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    make(Fields),
	}
}
