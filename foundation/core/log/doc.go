// Package log provides structured logging for koi.
//
// Package: log
// Title: koi Structured Logging
// Description: Leveled, structured logger with JSON, text and console
//              formatters. Loggers are immutable values: every With* call
//              returns a clone, so a component logger can be derived once
//              and shared. Output defaults to stderr so that commands
//              writing data to stdout stay pipeable.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-16 v0.2.0: Trimmed to the koi feature set, stderr default output
//
// Usage:
//
//	import mdwlog "github.com/msto63/koi/foundation/core/log"
//
//	logger := mdwlog.New().
//		WithLevel(mdwlog.LevelDebug).
//		WithField("component", "koi-parser")
//
//	logger.Debug("command parsed", mdwlog.Fields{"name": "draw", "line": 3})
//	logger.LogError(err)
//
//	timer := logger.StartTimer("parse")
//	// ...
//	timer.Stop()
package log
