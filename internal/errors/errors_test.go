// Package errors provides unit tests for error code handling.
package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

// TestAppErrorFormat verifies the error string format.
func TestAppErrorFormat(t *testing.T) {
	e := New(ErrStorage, "upsert failed")

	if !strings.Contains(e.Error(), "STORAGE_ERROR") {
		t.Errorf("Error() = %q, expected code", e.Error())
	}
	if !strings.Contains(e.Error(), "upsert failed") {
		t.Errorf("Error() = %q, expected message", e.Error())
	}
}

// TestWrapUnwrap verifies error wrapping preserves the cause.
func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	e := Wrap(ErrStorage, "upsert failed", cause)

	if !stderrors.Is(e, cause) {
		t.Error("Wrapped error should match cause via errors.Is")
	}

	if !strings.Contains(e.Error(), "disk full") {
		t.Errorf("Error() = %q, expected cause text", e.Error())
	}
}

// TestIs verifies code matching.
func TestIs(t *testing.T) {
	e := New(ErrExecutorMissing, "no executor for follow")

	if !Is(e, ErrExecutorMissing) {
		t.Error("Is() should match the error's code")
	}
	if Is(e, ErrStorage) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrStorage) {
		t.Error("Is() should not match a non-AppError")
	}
}
