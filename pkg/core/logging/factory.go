// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating process loggers from config
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mdwlog "github.com/msto63/koi/foundation/core/log"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name, written as the logger name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json", "text" or "console" (default: text)
	Format string

	// File additionally receives every entry when set
	File string

	// Output overrides stderr (tests)
	Output io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "text",
	}
}

// NewLogger creates a Foundation logger. The returned closer releases the
// log file, if any.
func NewLogger(cfg LoggerConfig) (*mdwlog.Logger, io.Closer, error) {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		output = io.MultiWriter(output, f)
		closer = f
	}

	format, err := mdwlog.ParseFormat(defaultString(cfg.Format, "text"))
	if err != nil {
		return nil, nil, err
	}

	logger := mdwlog.NewWithConfig(mdwlog.Config{
		Level:  parseLevel(cfg.Level),
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
	return logger, closer, nil
}

// NewSimpleLogger creates a stderr text logger at info level
func NewSimpleLogger(serviceName string) *mdwlog.Logger {
	logger, _, _ := NewLogger(DefaultLoggerConfig(serviceName))
	return logger
}

// parseLevel converts a string level to mdwlog.Level, defaulting to info
func parseLevel(level string) mdwlog.Level {
	l, err := mdwlog.ParseLevel(level)
	if err != nil {
		return mdwlog.LevelInfo
	}
	return l
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
