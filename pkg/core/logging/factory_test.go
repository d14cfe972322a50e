package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mdwlog "github.com/msto63/koi/foundation/core/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  mdwlog.Level
	}{
		{"debug", mdwlog.LevelDebug},
		{"warn", mdwlog.LevelWarn},
		{"warning", mdwlog.LevelWarn},
		{"error", mdwlog.LevelError},
		{"", mdwlog.LevelInfo},
		{"nonsense", mdwlog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, closer, err := NewLogger(LoggerConfig{
		ServiceName: "koi",
		Level:       "debug",
		Format:      "json",
		Output:      buf,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer closer.Close()

	logger.Debug("hello")
	if !strings.Contains(buf.String(), `"logger":"koi"`) {
		t.Errorf("expected logger name in output, got %q", buf.String())
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "koi.log")
	logger, closer, err := NewLogger(LoggerConfig{
		ServiceName: "koi",
		Format:      "text",
		File:        path,
		Output:      &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestNewLoggerInvalidFormat(t *testing.T) {
	if _, _, err := NewLogger(LoggerConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
