// File: parser_test.go
// Title: KoiLang Parser Unit Tests
// Description: Tests for command recognition, parameter classification,
//              error recovery and cursor behavior.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial parser test suite

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/command"
)

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = mdwlog.Discard()
	return opts
}

func newTestParser(t *testing.T, text string, opts Options) *Parser {
	t.Helper()
	p, err := New(text, opts)
	require.NoError(t, err)
	return p
}

// collect drains p, returning commands and errors in order
func collect(p *Parser) ([]*command.Command, []error) {
	var cmds []*command.Command
	var errs []error
	for cmd, err := range p.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds, errs
}

func TestParser_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []*command.Command
	}{
		{
			name:  "command followed by text",
			input: "#hello world\nThis is text.",
			want:  []*command.Command{command.New("hello", command.Basic("world"))},
		},
		{
			name:  "basic parameters",
			input: "#draw Line 2",
			want:  []*command.Command{command.New("draw", command.Basic("Line"), command.Basic("2"))},
		},
		{
			name:  "composite then basic",
			input: "#foo bar(baz) qux",
			want: []*command.Command{command.New("foo",
				command.Composite("bar", "baz"), command.Basic("qux"))},
		},
		{
			name:  "no parameters",
			input: "#end",
			want:  []*command.Command{command.New("end")},
		},
		{
			name:  "composite with inner whitespace",
			input: "#move pos(x: 1, y: 2) fast",
			want: []*command.Command{command.New("move",
				command.Composite("pos", "x: 1, y: 2"), command.Basic("fast"))},
		},
		{
			name:  "nested parentheses",
			input: "#f a((b)c)",
			want:  []*command.Command{command.New("f", command.Composite("a", "(b)c"))},
		},
		{
			name:  "empty composite",
			input: "#f foo()",
			want:  []*command.Command{command.New("f", command.Composite("foo", ""))},
		},
		{
			name:  "quoted parameter keeps spaces and quotes",
			input: `#say "hello world" x`,
			want:  []*command.Command{command.New("say", command.Basic(`"hello world"`), command.Basic("x"))},
		},
		{
			name:  "quoted parenthesis inside composite",
			input: `#say text(")") end`,
			want:  []*command.Command{command.New("say", command.Composite("text", `")"`), command.Basic("end"))},
		},
		{
			name:  "escaped whitespace stays in token",
			input: `#say hello\ world`,
			want:  []*command.Command{command.New("say", command.Basic(`hello\ world`))},
		},
		{
			name:  "sentinel inside parameters is literal",
			input: "#a #b",
			want:  []*command.Command{command.New("a", command.Basic("#b"))},
		},
		{
			name:  "non identifier before parenthesis is basic",
			input: "#n 1(2)",
			want:  []*command.Command{command.New("n", command.Basic("1(2)"))},
		},
		{
			name:  "extra whitespace between parameters",
			input: "#cmd   a \t b   ",
			want:  []*command.Command{command.New("cmd", command.Basic("a"), command.Basic("b"))},
		},
		{
			name:  "CRLF line endings",
			input: "#a b\r\ntext\r\n#c\r\n",
			want:  []*command.Command{command.New("a", command.Basic("b")), command.New("c")},
		},
		{
			name:  "indented command",
			input: "text\n    #inner x\n",
			want:  []*command.Command{command.New("inner", command.Basic("x"))},
		},
		{
			name:  "line continuation",
			input: "#cmd a \\\n  b\n#next",
			want:  []*command.Command{command.New("cmd", command.Basic("a"), command.Basic("b")), command.New("next")},
		},
		{
			name:  "unicode tokens",
			input: "#名前 値 ключ(значение)",
			want:  []*command.Command{command.New("名前", command.Basic("値"), command.Basic("ключ(значение)"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(t, tt.input, quietOptions())
			cmds, errs := collect(p)
			require.Empty(t, errs)
			require.Len(t, cmds, len(tt.want))
			for i := range tt.want {
				assert.True(t, tt.want[i].Equal(cmds[i]), "command %d: got %s, want %s", i, cmds[i], tt.want[i])
			}
		})
	}
}

func TestParser_NoCommands(t *testing.T) {
	inputs := []string{
		"",
		"plain prose\nmore prose",
		"a # not at line start",
		"\n\n\n",
		"  \t  ",
	}

	for _, input := range inputs {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			p := newTestParser(t, input, quietOptions())
			cmd, err := p.NextCommand()
			assert.Nil(t, cmd)
			assert.NoError(t, err)
			assert.True(t, p.Done())
		})
	}
}

func TestParser_ThresholdMonotonicity(t *testing.T) {
	for k := 1; k <= 4; k++ {
		input := strings.Repeat("#", k) + "cmd arg\nliteral line\n"
		for threshold := 1; threshold <= 5; threshold++ {
			t.Run(fmt.Sprintf("run=%d/threshold=%d", k, threshold), func(t *testing.T) {
				opts := quietOptions()
				opts.CommandThreshold = threshold
				p := newTestParser(t, input, opts)

				cmds, errs := collect(p)
				require.Empty(t, errs)
				if threshold <= k {
					require.Len(t, cmds, 1)
					assert.Equal(t, "cmd", cmds[0].Name())
					assert.Equal(t, []command.Parameter{command.Basic("arg")}, cmds[0].Params())
				} else {
					assert.Empty(t, cmds)
				}
			})
		}
	}
}

func TestParser_ThresholdSelectsRuns(t *testing.T) {
	opts := quietOptions()
	opts.CommandThreshold = 2
	p := newTestParser(t, "#single\n##double x\n###triple\n", opts)

	cmds, errs := collect(p)
	require.Empty(t, errs)
	require.Len(t, cmds, 2)
	assert.Equal(t, "double", cmds[0].Name())
	assert.Equal(t, "triple", cmds[1].Name())
}

func TestParser_InvalidOptions(t *testing.T) {
	for _, threshold := range []int{0, -1, -100} {
		t.Run(fmt.Sprint(threshold), func(t *testing.T) {
			opts := DefaultOptions()
			opts.CommandThreshold = threshold
			p, err := New("#a", opts)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOptions)
			assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidConfig))
			assert.False(t, errors.Is(err, ErrMalformedCommand))
		})
	}

	opts := DefaultOptions()
	opts.MaxLineLength = -1
	_, err := New("", opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = New("", Options{})
	assert.ErrorIs(t, err, ErrInvalidOptions, "zero threshold is rejected")
}

func TestParser_MalformedCommands(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		kind      error
		message   string
		line, col int
	}{
		{"bare sentinel", "#", ErrMalformedCommand, "empty command name", 1, 2},
		{"space after sentinel", "# spaced", ErrMalformedCommand, "empty command name", 1, 2},
		{"unbalanced", "#foo bar(baz", ErrMalformedParameter, "unbalanced parentheses", 1, 6},
		{"unbalanced on second line", "text\n#foo bar(baz", ErrMalformedParameter, "unbalanced parentheses", 2, 6},
		{"text after composite", "#f bar(baz)qux", ErrMalformedParameter, "unexpected text after composite parameter", 1, 12},
		{"unterminated quote", `#say "oops`, ErrMalformedParameter, "unterminated string", 1, 6},
		{"unterminated quote in name", `#"oops x`, ErrMalformedCommand, "unterminated string", 1, 2},
		{"indented bare sentinel", "  ##", ErrMalformedCommand, "empty command name", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(t, tt.input, quietOptions())

			cmd, err := p.NextCommand()
			assert.Nil(t, cmd)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, ErrMalformedCommand)
			assert.Equal(t, tt.message, perr.Message)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.col, perr.Column)

			// the malformed line is consumed
			cmd, err = p.NextCommand()
			assert.Nil(t, cmd)
			assert.NoError(t, err)
			assert.True(t, p.Done())
		})
	}
}

func TestParser_ErrorRecovery(t *testing.T) {
	p := newTestParser(t, "#a\n#\n#foo bar(\n#b x", quietOptions())

	cmds, errs := collect(p)
	require.Len(t, errs, 2)
	require.Len(t, cmds, 2)
	assert.Equal(t, "a", cmds[0].Name())
	assert.Equal(t, "b", cmds[1].Name())
	assert.Equal(t, Stats{Commands: 2, Errors: 2, Lines: 4}, p.Stats())
}

func TestParser_ExhaustionIsIdempotent(t *testing.T) {
	p := newTestParser(t, "#one\ntext\n", quietOptions())

	cmd, err := p.NextCommand()
	require.NoError(t, err)
	require.NotNil(t, cmd)

	cmd, err = p.NextCommand()
	require.NoError(t, err)
	require.Nil(t, cmd)

	offset, line, stats := p.Offset(), p.Line(), p.Stats()
	for i := 0; i < 3; i++ {
		cmd, err := p.NextCommand()
		assert.Nil(t, cmd)
		assert.NoError(t, err)
		assert.Equal(t, offset, p.Offset())
		assert.Equal(t, line, p.Line())
		assert.Equal(t, stats, p.Stats())
	}
}

func TestParser_OffsetAdvancesMonotonically(t *testing.T) {
	input := "#a\nx\n#\n#b(\n#c d"
	p := newTestParser(t, input, quietOptions())

	last := p.Offset()
	for !p.Done() {
		_, _ = p.NextCommand()
		assert.GreaterOrEqual(t, p.Offset(), last)
		last = p.Offset()
	}
	assert.Equal(t, len(input), p.Offset())
}

func TestParser_RawRoundTrip(t *testing.T) {
	tokens := []string{"a", "b(c)", "12", `"q r"`, "x_y(1, 2)", `esc\ aped`, "k()"}
	p := newTestParser(t, "#cmd "+strings.Join(tokens, " "), quietOptions())

	cmd, err := p.NextCommand()
	require.NoError(t, err)
	require.Equal(t, len(tokens), cmd.Len())

	for i, param := range cmd.Params() {
		assert.Equal(t, tokens[i], param.Raw())
		if param.IsComposite() {
			name, value := param.NameValue()
			assert.Equal(t, tokens[i], name+"("+value+")")
		} else {
			assert.Equal(t, tokens[i], param.Value())
		}
	}
}

func TestParser_IndentPolicy(t *testing.T) {
	input := "  #indented\n#flush\n"

	p := newTestParser(t, input, quietOptions())
	cmds, _ := collect(p)
	assert.Len(t, cmds, 2)

	opts := quietOptions()
	opts.AllowIndent = false
	p = newTestParser(t, input, opts)
	cmds, _ = collect(p)
	require.Len(t, cmds, 1)
	assert.Equal(t, "flush", cmds[0].Name())
}

func TestParser_ContinuationDisabled(t *testing.T) {
	opts := quietOptions()
	opts.LineContinuation = false
	p := newTestParser(t, "#cmd a\\\n#b", opts)

	cmds, errs := collect(p)
	require.Empty(t, errs)
	require.Len(t, cmds, 2)
	assert.Equal(t, []command.Parameter{command.Basic(`a\`)}, cmds[0].Params())
}

func TestParser_ContinuationErrorLocation(t *testing.T) {
	p := newTestParser(t, "#cmd a \\\nbar(x\n", quietOptions())

	_, err := p.NextCommand()
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 1, perr.Column)
	assert.Equal(t, 9, perr.Offset)
	assert.Equal(t, "bar(x", perr.Source)
	assert.Equal(t, 3, p.Line())
}

func TestParser_MaxLineLength(t *testing.T) {
	opts := quietOptions()
	opts.MaxLineLength = 5
	p := newTestParser(t, "#short\n#toolong\n", opts)

	cmd, err := p.NextCommand()
	require.NoError(t, err)
	assert.Equal(t, "short", cmd.Name())

	_, err = p.NextCommand()
	assert.ErrorIs(t, err, ErrMalformedCommand)
}

func TestParser_MaxLineLengthSplitsRune(t *testing.T) {
	opts := quietOptions()
	opts.MaxLineLength = 4
	p := newTestParser(t, "#abééé\n", opts)

	_, err := p.NextCommand()
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.True(t, utf8.ValidString(perr.Near))
	assert.True(t, utf8.ValidString(perr.Error()))
}

func TestParser_NameQuoteIsCommandError(t *testing.T) {
	p := newTestParser(t, `#"oops x`, quietOptions())

	_, err := p.NextCommand()
	assert.ErrorIs(t, err, ErrMalformedCommand)
	assert.NotErrorIs(t, err, ErrMalformedParameter)
}

func TestParser_ConvertNumberCommand(t *testing.T) {
	opts := quietOptions()
	opts.ConvertNumberCommand = true
	p := newTestParser(t, "#1 intro\n#-7\n#12x y\n#99999999999999999999\n", opts)

	cmds, errs := collect(p)
	require.Empty(t, errs)
	require.Len(t, cmds, 4)
	assert.True(t, cmds[0].Equal(command.New(NumberCommand, command.Basic("1"), command.Basic("intro"))))
	assert.True(t, cmds[1].Equal(command.New(NumberCommand, command.Basic("-7"))))
	assert.Equal(t, "12x", cmds[2].Name())
	assert.Equal(t, "99999999999999999999", cmds[3].Name(), "out of int64 range stays a name")

	// off by default
	p = newTestParser(t, "#1 intro\n", quietOptions())
	cmd, err := p.NextCommand()
	require.NoError(t, err)
	assert.Equal(t, "1", cmd.Name())
}

func TestParser_Commands(t *testing.T) {
	p := newTestParser(t, "#a\n#b\n#\n#c", quietOptions())

	cmds, err := p.Commands()
	assert.ErrorIs(t, err, ErrMalformedCommand)
	require.Len(t, cmds, 2)

	rest, err := p.Commands()
	assert.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].Name())
}

func TestParser_AllStopsOnBreak(t *testing.T) {
	p := newTestParser(t, "#a\n#b\n#c", quietOptions())

	for cmd, err := range p.All() {
		require.NoError(t, err)
		assert.Equal(t, "a", cmd.Name())
		break
	}

	cmd, err := p.NextCommand()
	require.NoError(t, err)
	assert.Equal(t, "b", cmd.Name())
}

func TestParser_ProcessWith(t *testing.T) {
	var names []string
	p := newTestParser(t, "#a\n#b", quietOptions())
	eof, err := p.ProcessWith(func(c *command.Command) error {
		names = append(names, c.Name())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, []string{"a", "b"}, names)

	failed := errors.New("handler failed")
	p = newTestParser(t, "#a\n#b", quietOptions())
	eof, err = p.ProcessWith(func(c *command.Command) error { return failed })
	assert.ErrorIs(t, err, failed)
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeProcessingFailed))
	assert.False(t, eof)
	assert.False(t, p.Done())

	p = newTestParser(t, "#\n#b", quietOptions())
	eof, err = p.ProcessWith(func(c *command.Command) error { return nil })
	assert.ErrorIs(t, err, ErrMalformedCommand)
	assert.False(t, eof)
}

func TestParser_ProcessWithStop(t *testing.T) {
	var names []string
	p := newTestParser(t, "#a\n#b\n#c", quietOptions())
	eof, err := p.ProcessWith(func(c *command.Command) error {
		names = append(names, c.Name())
		if c.Name() == "b" {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, []string{"a", "b"}, names)

	// the cursor resumes after the stop
	cmd, err := p.NextCommand()
	require.NoError(t, err)
	assert.Equal(t, "c", cmd.Name())

	// a wrapped ErrStop also stops
	eof, err = p.ProcessWith(func(c *command.Command) error {
		return fmt.Errorf("done early: %w", ErrStop)
	})
	require.NoError(t, err)
	assert.True(t, eof, "nothing left, so the input is exhausted")
}

func TestParser_IndependentCursorsShareText(t *testing.T) {
	text := "#a 1\n#b 2\n"
	p1 := newTestParser(t, text, quietOptions())
	p2 := newTestParser(t, text, quietOptions())

	c1, _ := p1.NextCommand()
	c1b, _ := p1.NextCommand()
	c2, _ := p2.NextCommand()

	assert.Equal(t, "a", c1.Name())
	assert.Equal(t, "b", c1b.Name())
	assert.Equal(t, "a", c2.Name())
}

func TestParser_LogsMalformedCommands(t *testing.T) {
	buf := &bytes.Buffer{}
	opts := DefaultOptions()
	opts.Logger = mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelDebug, Output: buf})

	p := newTestParser(t, "#ok\n#\n", opts)
	collect(p)

	out := buf.String()
	assert.Contains(t, out, `"message":"command parsed"`)
	assert.Contains(t, out, `"message":"malformed command"`)
	assert.Contains(t, out, `"component":"koi-parser"`)
}

func TestParseError_Format(t *testing.T) {
	p := newTestParser(t, "text\n#foo bar(baz", quietOptions())
	_, err := p.NextCommand()

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "parse error at line 2, column 6: unbalanced parentheses (near 'bar(baz')", perr.Error())
	assert.Equal(t, 10, perr.Offset)
	assert.Equal(t, mdwerror.CodeMalformedParameter, perr.Code())

	tb := perr.Traceback()
	lines := strings.Split(tb, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "   2 | #foo bar(baz", lines[0])
	assert.Equal(t, "     |      ^ unbalanced parentheses", lines[1])

	wrapped := perr.AsMDWError("cli.parse")
	assert.True(t, mdwerror.HasCode(wrapped, mdwerror.CodeMalformedParameter))
	assert.ErrorIs(t, wrapped, ErrMalformedParameter)
}

func TestParse_Defaults(t *testing.T) {
	p, err := Parse("#x")
	require.NoError(t, err)
	assert.Equal(t, DefaultCommandThreshold, p.Options().CommandThreshold)
	assert.True(t, p.Options().AllowIndent)
}
