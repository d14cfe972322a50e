// File: parser.go
// Title: KoiLang Streaming Parser
// Description: Cursor over one input text. Drives the scanner and the
//              command builder on demand and yields one command per call.
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
	"iter"
	"strings"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/command"
)

// Stats counts what a parser has produced so far
type Stats struct {
	Commands int
	Errors   int
	Lines    int
}

// Parser is a forward-only cursor over an input text
type Parser struct {
	text     string
	offset   int
	line     int
	lastLine int
	done     bool
	stats    Stats
	options  Options
	logger   *mdwlog.Logger
	scanner  scanner
	builder  builder
}

// New creates a parser over text. It fails when opts does not validate;
// no parser is returned in that case.
func New(text string, opts Options) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}

	return &Parser{
		text:    text,
		line:    1,
		options: opts,
		logger:  opts.Logger.WithField("component", "koi-parser"),
		scanner: scanner{
			text:         text,
			threshold:    opts.CommandThreshold,
			allowIndent:  opts.AllowIndent,
			continuation: opts.LineContinuation,
		},
		builder: builder{
			maxLength:      opts.MaxLineLength,
			convertNumbers: opts.ConvertNumberCommand,
		},
	}, nil
}

// Parse creates a parser with DefaultOptions
func Parse(text string) (*Parser, error) {
	return New(text, DefaultOptions())
}

// NextCommand returns the next command. It returns (nil, nil) once the
// input is exhausted and keeps doing so on every later call. A malformed
// command line yields (nil, *ParseError); the line is consumed either way.
func (p *Parser) NextCommand() (*command.Command, error) {
	if p.done {
		return nil, nil
	}

	sp, skipped, ok := p.scanner.next(p.offset, p.line)
	p.stats.Lines += skipped
	if !ok {
		p.done = true
		p.offset = len(p.text)
		p.logger.Debug("input exhausted", mdwlog.Fields{
			"commands": p.stats.Commands,
			"errors":   p.stats.Errors,
		})
		return nil, nil
	}

	p.offset = sp.end
	p.line = sp.line + sp.lines
	p.stats.Lines += sp.lines

	cmd, serr := p.builder.build(sp.body)
	if serr != nil {
		p.stats.Errors++
		perr := p.newParseError(sp, serr)
		p.logger.Warn("malformed command", mdwlog.Fields{
			"line":   perr.Line,
			"column": perr.Column,
			"reason": perr.Message,
		})
		return nil, perr
	}

	p.stats.Commands++
	p.lastLine = sp.line
	p.logger.Debug("command parsed", mdwlog.Fields{
		"name":   cmd.Name(),
		"params": cmd.Len(),
		"line":   sp.line,
	})
	return cmd, nil
}

// All returns a single-use sequence over the remaining commands. Errors
// are yielded in place and iteration continues after them.
func (p *Parser) All() iter.Seq2[*command.Command, error] {
	return func(yield func(*command.Command, error) bool) {
		for {
			cmd, err := p.NextCommand()
			if cmd == nil && err == nil {
				return
			}
			if !yield(cmd, err) {
				return
			}
		}
	}
}

// Commands collects the remaining commands. It stops at the first error
// and returns the commands read before it.
func (p *Parser) Commands() ([]*command.Command, error) {
	var cmds []*command.Command
	for cmd, err := range p.All() {
		if err != nil {
			return cmds, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ProcessWith calls fn for each remaining command. It stops on the first
// parse error or the first error returned by fn. A handler returning
// ErrStop ends processing early with reachedEOF false and a nil error.
func (p *Parser) ProcessWith(fn func(*command.Command) error) (reachedEOF bool, err error) {
	for cmd, err := range p.All() {
		if err != nil {
			return false, err
		}
		ferr := fn(cmd)
		if errors.Is(ferr, ErrStop) {
			return false, nil
		}
		if ferr != nil {
			return false, mdwerror.Wrap(ferr, "command handler failed").
				WithCode(mdwerror.CodeProcessingFailed).
				WithOperation("parser.ProcessWith").
				WithDetail("command", cmd.Name()).
				WithDetail("line", p.lastLine)
		}
	}
	return true, nil
}

// Offset returns the byte offset of the next unread input
func (p *Parser) Offset() int { return p.offset }

// Line returns the 1-based line number at Offset
func (p *Parser) Line() int { return p.line }

// Done reports whether the input is exhausted
func (p *Parser) Done() bool { return p.done }

// Stats returns the counters collected so far
func (p *Parser) Stats() Stats { return p.stats }

// Options returns the options the parser was created with
func (p *Parser) Options() Options { return p.options }

func (p *Parser) newParseError(sp span, serr *syntaxError) *ParseError {
	offset, line, column := sp.locate(serr.pos)
	source := sp.source
	if line != sp.line {
		source, _ = p.scanner.physicalLine(offset - (column - 1))
	}
	return &ParseError{
		Kind:    serr.kind,
		Message: serr.message,
		Line:    line,
		Column:  column,
		Offset:  offset,
		Source:  source,
		Near:    near(sp.body, serr.pos),
	}
}

// near returns a short excerpt of body starting at pos
func near(body string, pos int) string {
	const maxNear = 20
	if pos >= len(body) {
		return ""
	}
	excerpt := body[pos:]
	if len(excerpt) > maxNear {
		excerpt = excerpt[:maxNear]
	}
	return strings.ToValidUTF8(excerpt, "")
}
