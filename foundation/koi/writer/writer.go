// File: writer.go
// Title: KoiLang Writer
// Description: Renders commands and literal text back into KoiLang source
//              that the parser reads back to the same commands.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

// Package writer generates KoiLang text from commands.
package writer

import (
	"errors"
	"io"
	"strings"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/foundation/koi/parser"
)

// ErrUnrepresentable is returned for commands or text lines that would not
// parse back to the same value
var ErrUnrepresentable = errors.New("value cannot be written as KoiLang")

// CommandFormat holds per-command layout overrides
type CommandFormat struct {
	NewlineBefore bool
	NewlineAfter  bool
}

// Options configures the writer
type Options struct {
	// CommandThreshold is the number of '#' written before each command
	CommandThreshold int

	// Indent is the number of spaces per indentation level
	Indent  int
	UseTabs bool

	// Commands maps command names to layout overrides
	Commands map[string]CommandFormat
}

// DefaultOptions returns a single-sentinel, four-space layout
func DefaultOptions() Options {
	return Options{CommandThreshold: 1, Indent: 4}
}

// Writer emits KoiLang lines to an io.Writer
type Writer struct {
	out   io.Writer
	opts  Options
	level int
	err   error
}

// New creates a writer. The threshold must be positive and the indent
// non-negative.
func New(w io.Writer, opts Options) (*Writer, error) {
	if opts.CommandThreshold <= 0 || opts.Indent < 0 {
		return nil, mdwerror.New("invalid writer options").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("writer.New").
			WithDetail("command_threshold", opts.CommandThreshold).
			WithDetail("indent", opts.Indent)
	}
	return &Writer{out: w, opts: opts}, nil
}

// Indent increases the indentation level of following lines
func (w *Writer) Indent() { w.level++ }

// Dedent decreases the indentation level; it stops at zero
func (w *Writer) Dedent() {
	if w.level > 0 {
		w.level--
	}
}

// Format renders cmd as a single line without indentation or newline
func (w *Writer) Format(cmd *command.Command) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("#", w.opts.CommandThreshold))
	sb.WriteString(cmd.Name())
	for _, p := range cmd.Params() {
		sb.WriteByte(' ')
		sb.WriteString(p.Raw())
	}
	return sb.String()
}

// WriteCommand writes one command line. It fails with ErrUnrepresentable
// for a nil command or when the rendered line would parse differently.
func (w *Writer) WriteCommand(cmd *command.Command) error {
	if w.err != nil {
		return w.err
	}
	if cmd == nil {
		return mdwerror.Wrap(ErrUnrepresentable, "nil command").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("writer.WriteCommand")
	}

	line := w.Format(cmd)
	if err := w.verify(line, cmd); err != nil {
		return err
	}

	format := w.opts.Commands[cmd.Name()]
	if format.NewlineBefore {
		w.write("\n")
	}
	w.write(w.prefix() + line + "\n")
	if format.NewlineAfter {
		w.write("\n")
	}
	return w.err
}

// WriteAll writes every command in order
func (w *Writer) WriteAll(cmds []*command.Command) error {
	for _, cmd := range cmds {
		if err := w.WriteCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

// WriteText writes literal text lines. A line that would be read as a
// command is rejected with ErrUnrepresentable.
func (w *Writer) WriteText(text string) error {
	if w.err != nil {
		return w.err
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, strings.Repeat("#", w.opts.CommandThreshold)) {
			return mdwerror.Wrap(ErrUnrepresentable, "text line starts with a command sentinel").
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("writer.WriteText").
				WithDetail("line", line)
		}
		if line == "" {
			w.write("\n")
			continue
		}
		w.write(w.prefix() + line + "\n")
	}
	return w.err
}

func (w *Writer) verify(line string, want *command.Command) error {
	opts := parser.DefaultOptions()
	opts.CommandThreshold = w.opts.CommandThreshold
	opts.LineContinuation = false
	opts.Logger = mdwlog.Discard()

	p, err := parser.New(line, opts)
	if err == nil && !trailingBackslash(line) {
		var got *command.Command
		got, err = p.NextCommand()
		if err == nil && got.Equal(want) {
			if extra, _ := p.NextCommand(); extra == nil {
				return nil
			}
		}
	}
	e := mdwerror.Wrap(ErrUnrepresentable, "command does not round-trip").
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("writer.WriteCommand").
		WithDetail("command", want.Name())
	if err != nil {
		e = e.WithDetail("reason", err.Error())
	}
	return e
}

// trailingBackslash reports a line that a continuation-aware reader would
// join with the next one
func trailingBackslash(line string) bool {
	n := len(line) - len(strings.TrimRight(line, "\\"))
	return n%2 == 1
}

func (w *Writer) prefix() string {
	if w.level == 0 {
		return ""
	}
	if w.opts.UseTabs {
		return strings.Repeat("\t", w.level)
	}
	return strings.Repeat(" ", w.level*w.opts.Indent)
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.out, s); err != nil {
		w.err = mdwerror.Wrap(err, "write failed").
			WithCode(mdwerror.CodeIOError).
			WithOperation("writer.write")
	}
}
