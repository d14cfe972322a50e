// File: scanner.go
// Title: Command Line Scanner
// Description: Finds the next command span in the input, skipping literal
//              lines without copying them.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package parser

import (
	"strings"
)

const sentinel = '#'

// span is one command line, possibly joined from several physical lines
type span struct {
	start int // offset of the first byte of the line
	end   int // offset just past the terminating newline
	line  int // 1-based line of start
	lines int // physical lines covered

	// bodyStart is the offset of the first byte after the sentinel run,
	// bodyColumn its 1-based column
	bodyStart  int
	bodyColumn int

	// body is the text after the sentinel run with continuations replaced
	// by a single space; source is the first physical line
	body   string
	source string

	// segments maps body positions back to input offsets, one entry per
	// joined physical line
	segments []segment
}

type segment struct {
	bodyPos int
	offset  int
	line    int
	column  int
}

// locate returns the input offset, line and column of body position pos
func (s span) locate(pos int) (offset, line, column int) {
	seg := s.segments[0]
	for _, next := range s.segments[1:] {
		if next.bodyPos > pos {
			break
		}
		seg = next
	}
	delta := pos - seg.bodyPos
	return seg.offset + delta, seg.line, seg.column + delta
}

type scanner struct {
	text         string
	threshold    int
	allowIndent  bool
	continuation bool
}

// next returns the first command span at or after offset. line is the
// 1-based line number of offset. ok is false when no span remains; then
// skipped reports the number of lines passed over.
func (s *scanner) next(offset, line int) (sp span, skipped int, ok bool) {
	for offset < len(s.text) {
		content, next := s.physicalLine(offset)

		i := 0
		if s.allowIndent {
			for i < len(content) && (content[i] == ' ' || content[i] == '\t') {
				i++
			}
		}
		run := 0
		for i+run < len(content) && content[i+run] == sentinel {
			run++
		}

		if run > 0 && run >= s.threshold {
			return s.build(offset, line, content, next, i+run), skipped, true
		}

		offset = next
		line++
		skipped++
	}
	return span{}, skipped, false
}

// physicalLine returns the line at offset without its line terminator and
// the offset of the following line
func (s *scanner) physicalLine(offset int) (string, int) {
	rest := s.text[offset:]
	nl := strings.IndexByte(rest, '\n')
	next := len(s.text)
	if nl >= 0 {
		rest = rest[:nl]
		next = offset + nl + 1
	}
	return strings.TrimSuffix(rest, "\r"), next
}

func (s *scanner) build(offset, line int, content string, next, bodyIdx int) span {
	sp := span{
		start:      offset,
		end:        next,
		line:       line,
		lines:      1,
		bodyStart:  offset + bodyIdx,
		bodyColumn: bodyIdx + 1,
		source:     content,
	}
	sp.segments = []segment{{bodyPos: 0, offset: sp.bodyStart, line: line, column: sp.bodyColumn}}

	body := content[bodyIdx:]
	if !s.continuation || !endsWithContinuation(body) || next >= len(s.text) {
		sp.body = body
		return sp
	}

	var sb strings.Builder
	for endsWithContinuation(body) && next < len(s.text) {
		sb.WriteString(body[:len(body)-1])
		sb.WriteByte(' ')

		lineOffset := next
		body, next = s.physicalLine(next)
		sp.lines++
		sp.segments = append(sp.segments, segment{
			bodyPos: sb.Len(),
			offset:  lineOffset,
			line:    line + sp.lines - 1,
			column:  1,
		})
	}
	sb.WriteString(body)

	sp.body = sb.String()
	sp.end = next
	return sp
}

// endsWithContinuation reports whether s ends in an odd number of
// backslashes
func endsWithContinuation(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
