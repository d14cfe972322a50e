// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its duration on Stop.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2026-10-16 v0.2.0: Reduced to Stop/StopWithFields

package log

import (
	"time"
)

// Timer measures the duration of a named operation
type Timer struct {
	logger    *Logger
	operation string
	startTime time.Time
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		level:     LevelDebug,
	}
}

// WithLevel sets the log level for the completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// Elapsed returns the elapsed time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Stop logs the elapsed time. Calling Stop twice logs once and returns 0
// the second time.
func (t *Timer) Stop() time.Duration {
	return t.StopWithFields(nil)
}

// StopWithFields is Stop with extra fields on the completion entry
func (t *Timer) StopWithFields(fields Fields) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true

	elapsed := t.Elapsed()
	merged := Fields{"operation": t.operation}.Merge(fields)
	t.logger.logEntry(t.level, t.operation+" completed", nil, elapsed, merged)
	return elapsed
}
