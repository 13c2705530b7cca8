// Package main tests for the core library entry point.
// These tests verify basic functionality and version handling.
package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionDefault(t *testing.T) {
	// In production the version is set by build flags; verify it is
	// never empty.
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	expectedPrefix := "ActionSync Core v"

	// Simulate what main() prints
	buf.WriteString("ActionSync Core v")
	buf.WriteString(Version)
	buf.WriteString("\n")

	output := buf.String()
	if !strings.HasPrefix(output, expectedPrefix) {
		t.Errorf("Expected output to start with %q, got %q", expectedPrefix, output)
	}
}
