// File: options.go
// Title: Parser Options
// Description: Parser configuration and its validation.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package parser

import (
	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
)

// DefaultCommandThreshold is the sentinel run length that starts a command
// unless configured otherwise
const DefaultCommandThreshold = 1

// NumberCommand is the name given to commands whose name is an integer
// when Options.ConvertNumberCommand is set
const NumberCommand = "@number"

// Options configures parser behavior
type Options struct {
	// CommandThreshold is the minimum number of consecutive '#' at line
	// start that introduce a command. Shorter runs are literal text.
	// Must be positive.
	CommandThreshold int

	// AllowIndent lets spaces and tabs precede the sentinel run
	AllowIndent bool

	// LineContinuation joins a command line ending in an unescaped
	// backslash with the next physical line
	LineContinuation bool

	// MaxLineLength rejects command bodies longer than this many bytes.
	// Zero means unlimited.
	MaxLineLength int

	// ConvertNumberCommand turns a command named by a decimal integer, such
	// as "#1 intro", into NumberCommand with the integer as its first
	// parameter
	ConvertNumberCommand bool

	// Logger for parser diagnostics (optional, defaults to the default logger)
	Logger *mdwlog.Logger
}

// DefaultOptions returns the options Parse uses
func DefaultOptions() Options {
	return Options{
		CommandThreshold: DefaultCommandThreshold,
		AllowIndent:      true,
		LineContinuation: true,
	}
}

// Validate reports configuration errors. The returned error wraps
// ErrInvalidOptions and carries mdwerror.CodeInvalidConfig.
func (o Options) Validate() error {
	if o.CommandThreshold <= 0 {
		return mdwerror.Wrap(ErrInvalidOptions, "command threshold must be positive").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("parser.Options.Validate").
			WithDetail("command_threshold", o.CommandThreshold)
	}
	if o.MaxLineLength < 0 {
		return mdwerror.Wrap(ErrInvalidOptions, "max line length must not be negative").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("parser.Options.Validate").
			WithDetail("max_line_length", o.MaxLineLength)
	}
	return nil
}
