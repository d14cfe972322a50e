// File: doc.go
// Title: KoiLang Parser Package Documentation
// Description: Streaming parser that pulls commands out of free text.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial parser implementation

/*
Package parser extracts KoiLang commands from free-form text.

A command line starts with a run of '#' characters at the beginning of a
line. When the run is at least Options.CommandThreshold long, the token
right after it is the command name and the rest of the line holds its
parameters. Every other line is literal text and is skipped without being
copied anywhere.

	#draw Line 2
	Some prose that the parser ignores.
	#move pos(x: 1, y: 2) fast

Parsing is lazy. A Parser is a cursor over one input string: each call to
NextCommand scans forward to the next command line, builds it and returns
it. (nil, nil) means the input is exhausted; a *ParseError means the line
was malformed. In both cases the cursor has already moved past the line,
so callers can keep pulling.

	p, err := parser.New(text, parser.DefaultOptions())
	if err != nil {
		return err
	}
	for cmd, err := range p.All() {
		if err != nil {
			log.Warn(err.Error())
			continue
		}
		handle(cmd)
	}

A Parser is not safe for concurrent use. Several parsers may read the same
string at once.
*/
package parser
