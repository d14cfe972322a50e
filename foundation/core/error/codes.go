// File: codes.go
// Title: Error Code Definitions
// Description: Stable error codes used by the koi engine adapters, the CLI
//              and the live-parse server.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-16 v0.2.0: Replaced platform codes with parser and adapter codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Parsing
	CodeMalformedCommand   Code = "MALFORMED_COMMAND"
	CodeMalformedParameter Code = "MALFORMED_PARAMETER"
	CodeVariantMismatch    Code = "VARIANT_MISMATCH"
	CodeInvalidValue       Code = "INVALID_VALUE"
	CodeProcessingFailed   Code = "PROCESSING_FAILED"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// I/O and adapters
	CodeIOError      Code = "IO_ERROR"
	CodeEncoding     Code = "ENCODING_ERROR"
	CodeStorageError Code = "STORAGE_ERROR"
	CodeTransport    Code = "TRANSPORT_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput,
		CodeMalformedCommand, CodeMalformedParameter, CodeVariantMismatch, CodeInvalidValue, CodeProcessingFailed,
		CodeConfigError, CodeInvalidConfig,
		CodeIOError, CodeEncoding, CodeStorageError, CodeTransport:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeMalformedCommand, CodeMalformedParameter, CodeVariantMismatch, CodeInvalidValue, CodeProcessingFailed:
		return "parse"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	case CodeIOError, CodeEncoding:
		return "input"
	case CodeStorageError:
		return "storage"
	case CodeTransport:
		return "transport"
	default:
		return "generic"
	}
}

// HTTPStatus returns the HTTP status used when the error reaches the server
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return 404
	case CodeInvalidInput, CodeMalformedCommand, CodeMalformedParameter, CodeInvalidValue, CodeEncoding:
		return 400
	case CodeStorageError, CodeTransport:
		return 503
	default:
		return 500
	}
}
