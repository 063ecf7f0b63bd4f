package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)
	defer InitForCLI(LevelInfo, os.Stderr)

	Debug("Test", "debug message")
	Info("Test", "info message")
	Warn("Test", "warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below filter level were logged: %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn message missing from output: %s", out)
	}
}

func TestSubsystemAndErrorAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)
	defer InitForCLI(LevelInfo, os.Stderr)

	Error("Reconcile", os.ErrNotExist, "listing %s failed", "indexer")

	out := buf.String()
	if !strings.Contains(out, "subsystem=Reconcile") {
		t.Errorf("subsystem attribute missing: %s", out)
	}
	if !strings.Contains(out, "listing indexer failed") {
		t.Errorf("formatted message missing: %s", out)
	}
	if !strings.Contains(out, "file does not exist") {
		t.Errorf("error attribute missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != LevelDebug {
		t.Error("expected debug")
	}
	if ParseLevel("nonsense") != LevelInfo {
		t.Error("unknown names should default to info")
	}
}
