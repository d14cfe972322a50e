// File: builder.go
// Title: Command Builder
// Description: Splits a command body into name and parameters and
//              classifies each parameter as basic or composite.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package parser

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/msto63/koi/foundation/koi/command"
)

// syntaxError is a builder failure at a body position
type syntaxError struct {
	kind    error
	message string
	pos     int
}

type builder struct {
	maxLength      int
	convertNumbers bool
}

// build turns a span body into a command
func (b *builder) build(body string) (*command.Command, *syntaxError) {
	if b.maxLength > 0 && len(body) > b.maxLength {
		return nil, &syntaxError{kind: ErrMalformedCommand, message: "command exceeds maximum length", pos: b.maxLength}
	}
	if body == "" || startsWithSpace(body) {
		return nil, &syntaxError{kind: ErrMalformedCommand, message: "empty command name", pos: 0}
	}

	nameEnd, serr := scanToken(body, 0)
	if serr != nil {
		serr.kind = ErrMalformedCommand
		return nil, serr
	}
	name := body[:nameEnd]

	var params []command.Parameter
	i := nameEnd
	for {
		i = skipSpace(body, i)
		if i >= len(body) {
			break
		}
		param, end, serr := scanParam(body, i)
		if serr != nil {
			return nil, serr
		}
		params = append(params, param)
		i = end
	}

	if b.convertNumbers && isInteger(name) {
		params = append([]command.Parameter{command.Basic(name)}, params...)
		name = NumberCommand
	}
	return command.New(name, params...), nil
}

// isInteger reports a name that reads as a signed 64-bit decimal integer
func isInteger(name string) bool {
	_, err := strconv.ParseInt(name, 10, 64)
	return err == nil
}

// scanParam reads one parameter starting at body[start]
func scanParam(body string, start int) (command.Parameter, int, *syntaxError) {
	identEnd := scanIdentifier(body, start)
	if identEnd > start && identEnd < len(body) && body[identEnd] == '(' {
		end, serr := scanComposite(body, start, identEnd)
		if serr != nil {
			return command.Parameter{}, 0, serr
		}
		return command.Composite(body[start:identEnd], body[identEnd+1:end-1]), end, nil
	}

	end, serr := scanToken(body, start)
	if serr != nil {
		return command.Parameter{}, 0, serr
	}
	return command.Basic(body[start:end]), end, nil
}

// scanComposite reads `ident(...)` with balanced parentheses and returns
// the offset just past the closing parenthesis
func scanComposite(body string, start, open int) (int, *syntaxError) {
	depth := 0
	i := open
	for i < len(body) {
		switch body[i] {
		case '\\':
			i = skipEscape(body, i)
			continue
		case '"':
			end, serr := scanQuoted(body, i)
			if serr != nil {
				return 0, serr
			}
			i = end
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				i++
				if i < len(body) && !startsWithSpace(body[i:]) {
					return 0, &syntaxError{
						kind:    ErrMalformedParameter,
						message: "unexpected text after composite parameter",
						pos:     i,
					}
				}
				return i, nil
			}
		}
		i++
	}
	return 0, &syntaxError{kind: ErrMalformedParameter, message: "unbalanced parentheses", pos: start}
}

// scanToken reads up to the next unescaped whitespace outside quotes
func scanToken(body string, start int) (int, *syntaxError) {
	i := start
	for i < len(body) {
		switch body[i] {
		case '\\':
			i = skipEscape(body, i)
		case '"':
			end, serr := scanQuoted(body, i)
			if serr != nil {
				return 0, serr
			}
			i = end
		default:
			r, size := utf8.DecodeRuneInString(body[i:])
			if unicode.IsSpace(r) {
				return i, nil
			}
			i += size
		}
	}
	return i, nil
}

// scanQuoted reads a double-quoted section starting at body[start] and
// returns the offset just past the closing quote
func scanQuoted(body string, start int) (int, *syntaxError) {
	i := start + 1
	for i < len(body) {
		switch body[i] {
		case '\\':
			i = skipEscape(body, i)
		case '"':
			return i + 1, nil
		default:
			i++
		}
	}
	return 0, &syntaxError{kind: ErrMalformedParameter, message: "unterminated string", pos: start}
}

// skipEscape returns the offset after a backslash and the rune it escapes
func skipEscape(body string, i int) int {
	i++
	if i >= len(body) {
		return i
	}
	_, size := utf8.DecodeRuneInString(body[i:])
	return i + size
}

// scanIdentifier returns the end of an identifier at body[start], or start
func scanIdentifier(body string, start int) int {
	i := start
	for i < len(body) {
		c := body[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || (i > start && c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return i
}

func skipSpace(body string, i int) int {
	for i < len(body) {
		r, size := utf8.DecodeRuneInString(body[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
