// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     viewer
// Description: Message types for async operations in the viewer
// Author:      Mike Stoffels
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package viewer

import (
	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/foundation/koi/parser"
)

// item is one row of the list: a command or a malformed span, in input
// order
type item struct {
	cmd *command.Command
	err *parser.ParseError
}

// loadedMsg is sent when the file has been read and parsed
type loadedMsg struct {
	items []item
	stats parser.Stats
	err   error
}
