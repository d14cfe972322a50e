// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels derived from error codes. The logger maps
//              them to log levels in LogError.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-16 v0.2.0: Code mapping for the parser codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow covers bad input: malformed commands, unknown ids
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	// SeverityCritical is reserved for programming errors
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines the severity level for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeVariantMismatch, CodeInternal:
		return SeverityCritical
	case CodeStorageError, CodeIOError:
		return SeverityHigh
	case CodeInvalidInput, CodeNotFound, CodeMalformedCommand, CodeMalformedParameter,
		CodeInvalidValue, CodeEncoding, CodeInvalidConfig:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
