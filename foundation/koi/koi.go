// File: koi.go
// Title: KoiLang High-Level API
// Description: Convenience entry points over the streaming parser for
//              callers that want a whole document at once.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

// Package koi is the high-level entry point to the KoiLang parser.
package koi

import (
	"errors"

	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/foundation/koi/parser"
)

// Option adjusts parser options
type Option func(*parser.Options)

// WithThreshold sets the command threshold
func WithThreshold(n int) Option {
	return func(o *parser.Options) { o.CommandThreshold = n }
}

// WithIndent sets whether indented sentinels start commands
func WithIndent(allow bool) Option {
	return func(o *parser.Options) { o.AllowIndent = allow }
}

// WithLineContinuation sets backslash line joining
func WithLineContinuation(enabled bool) Option {
	return func(o *parser.Options) { o.LineContinuation = enabled }
}

// WithMaxLineLength limits command body length
func WithMaxLineLength(n int) Option {
	return func(o *parser.Options) { o.MaxLineLength = n }
}

// WithNumberCommands sets Options.ConvertNumberCommand
func WithNumberCommands(enabled bool) Option {
	return func(o *parser.Options) { o.ConvertNumberCommand = enabled }
}

// WithLogger sets the parser logger
func WithLogger(logger *mdwlog.Logger) Option {
	return func(o *parser.Options) { o.Logger = logger }
}

// WithOptions replaces all options at once
func WithOptions(opts parser.Options) Option {
	return func(o *parser.Options) { *o = opts }
}

// Options builds parser options from defaults and opts
func Options(opts ...Option) parser.Options {
	o := parser.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Result holds every command and every parse error of a document
type Result struct {
	Commands []*command.Command
	Errors   []*parser.ParseError
	Stats    parser.Stats
}

// OK reports whether the document parsed without errors
func (r Result) OK() bool { return len(r.Errors) == 0 }

// ParseString parses text and stops at the first malformed command
func ParseString(text string, opts ...Option) ([]*command.Command, error) {
	p, err := parser.New(text, Options(opts...))
	if err != nil {
		return nil, err
	}
	return p.Commands()
}

// Collect parses all of text, gathering commands and errors. The only
// error returned is a configuration error.
func Collect(text string, opts ...Option) (Result, error) {
	p, err := parser.New(text, Options(opts...))
	if err != nil {
		return Result{}, err
	}

	var res Result
	for cmd, err := range p.All() {
		if err != nil {
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				res.Errors = append(res.Errors, perr)
			}
			continue
		}
		res.Commands = append(res.Commands, cmd)
	}
	res.Stats = p.Stats()
	return res, nil
}
