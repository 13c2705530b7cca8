// Package logging provides unit tests for the structured logger.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestLoggerLevels verifies level filtering.
func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	if !strings.Contains(lines[0], "warn message") {
		t.Errorf("First line should be the warning, got %q", lines[0])
	}
}

// TestLoggerJSONFormat verifies entries are valid JSON with expected fields.
func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)

	l.Error("something failed", errors.New("boom"), map[string]interface{}{
		"action_id": "abc",
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log entry is not valid JSON: %v", err)
	}

	if entry.Level != "ERROR" {
		t.Errorf("level = %q, want ERROR", entry.Level)
	}
	if entry.Message != "something failed" {
		t.Errorf("message = %q, want %q", entry.Message, "something failed")
	}
	if entry.Error != "boom" {
		t.Errorf("error = %q, want %q", entry.Error, "boom")
	}
	if entry.Context["action_id"] != "abc" {
		t.Errorf("context[action_id] = %v, want abc", entry.Context["action_id"])
	}
	if entry.Timestamp == "" {
		t.Error("timestamp should be set")
	}
}

// TestLoggerComponent verifies the component tag is attached.
func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug).WithComponent("engine")

	l.Info("hello")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log entry is not valid JSON: %v", err)
	}

	if entry.Component != "engine" {
		t.Errorf("component = %q, want engine", entry.Component)
	}
}

// TestLoggerSetLevel verifies runtime level changes.
func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)

	l.Info("dropped")
	l.SetLevel(LevelDebug)
	l.Info("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("Info entry should be filtered at Error level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("Info entry should pass after SetLevel(Debug)")
	}
}

// TestMergeContext verifies context map merging.
func TestMergeContext(t *testing.T) {
	merged := mergeContext(
		map[string]interface{}{"a": 1},
		map[string]interface{}{"b": 2},
	)

	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("mergeContext produced %v", merged)
	}

	if mergeContext() != nil {
		t.Error("mergeContext() with no args should return nil")
	}
}
