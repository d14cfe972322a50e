// File: errors.go
// Title: Parser Errors
// Description: Sentinel errors and the positioned ParseError.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package parser

import (
	"errors"
	"fmt"
	"strings"

	mdwerror "github.com/msto63/koi/foundation/core/error"
)

var (
	// ErrMalformedCommand matches every *ParseError
	ErrMalformedCommand = errors.New("malformed command")

	// ErrMalformedParameter matches parse errors caused by a bad parameter
	ErrMalformedParameter = errors.New("malformed parameter")

	// ErrInvalidOptions is wrapped by configuration errors from New
	ErrInvalidOptions = errors.New("invalid parser options")

	// ErrStop is returned by a ProcessWith handler to end processing
	// without an error
	ErrStop = errors.New("stop processing")
)

// ParseError describes a command line that could not be built. The parser
// has already moved past the line when it returns one.
type ParseError struct {
	// Kind is ErrMalformedCommand or ErrMalformedParameter
	Kind    error
	Message string

	// Line and Column are 1-based, Column counting bytes. Offset is the
	// byte offset of the offending position in the input.
	Line   int
	Column int
	Offset int

	// Source is the physical line the command starts on, without newline
	Source string
	Near   string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s (near '%s')",
		e.Line, e.Column, e.Message, e.Near)
}

// Unwrap exposes Kind, and ErrMalformedCommand for parameter errors, so a
// bad parameter is also reported as a malformed command
func (e *ParseError) Unwrap() []error {
	if e.Kind == ErrMalformedCommand {
		return []error{ErrMalformedCommand}
	}
	return []error{e.Kind, ErrMalformedCommand}
}

// Code maps the error onto the shared error codes
func (e *ParseError) Code() mdwerror.Code {
	if e.Kind == ErrMalformedParameter {
		return mdwerror.CodeMalformedParameter
	}
	return mdwerror.CodeMalformedCommand
}

// Traceback renders the source line with a caret under the error column
func (e *ParseError) Traceback() string {
	var sb strings.Builder
	prefix := fmt.Sprintf("%4d | ", e.Line)
	sb.WriteString(prefix)
	sb.WriteString(e.Source)
	sb.WriteByte('\n')

	col := e.Column
	if col < 1 {
		col = 1
	}
	if col > len(e.Source)+1 {
		col = len(e.Source) + 1
	}
	sb.WriteString(strings.Repeat(" ", len(prefix)-2))
	sb.WriteString("| ")
	for i := 0; i < col-1; i++ {
		if e.Source[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString("^ ")
	sb.WriteString(e.Message)
	return sb.String()
}

// AsMDWError wraps the parse error for adapters that report coded errors
func (e *ParseError) AsMDWError(operation string) *mdwerror.Error {
	return mdwerror.Wrap(e, "parse failed").
		WithCode(e.Code()).
		WithOperation(operation).
		WithDetail("line", e.Line).
		WithDetail("column", e.Column)
}
