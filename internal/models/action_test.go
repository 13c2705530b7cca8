// Package models provides unit tests for the action model.
package models

import (
	"testing"
	"time"
)

// TestActionTypeInverse verifies each type maps to its logical inverse.
func TestActionTypeInverse(t *testing.T) {
	pairs := map[ActionType]ActionType{
		ActionLike:     ActionUnlike,
		ActionUnlike:   ActionLike,
		ActionRepost:   ActionUnrepost,
		ActionUnrepost: ActionRepost,
		ActionFollow:   ActionUnfollow,
		ActionUnfollow: ActionFollow,
	}

	for typ, want := range pairs {
		inv, ok := typ.Inverse()
		if !ok {
			t.Errorf("Inverse(%s) reported unknown type", typ)
		}
		if inv != want {
			t.Errorf("Inverse(%s) = %s, want %s", typ, inv, want)
		}
	}
}

// TestActionTypeInverseRoundTrip verifies inverse of inverse is identity.
func TestActionTypeInverseRoundTrip(t *testing.T) {
	for _, typ := range []ActionType{
		ActionLike, ActionUnlike, ActionRepost,
		ActionUnrepost, ActionFollow, ActionUnfollow,
	} {
		inv, _ := typ.Inverse()
		back, _ := inv.Inverse()
		if back != typ {
			t.Errorf("Inverse(Inverse(%s)) = %s, want %s", typ, back, typ)
		}
	}
}

// TestActionTypeUnknown verifies unknown types are rejected.
func TestActionTypeUnknown(t *testing.T) {
	var typ ActionType = "bookmark"

	if typ.IsValid() {
		t.Error("Expected IsValid() false for unknown type")
	}

	if _, ok := typ.Inverse(); ok {
		t.Error("Expected Inverse() not ok for unknown type")
	}
}

// TestActionStatusIsTerminal verifies terminal status classification.
func TestActionStatusIsTerminal(t *testing.T) {
	cases := map[ActionStatus]bool{
		ActionStatusPending:   false,
		ActionStatusSyncing:   false,
		ActionStatusCompleted: true,
		ActionStatusFailed:    true,
	}

	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

// TestActionTimestamps verifies time conversion helpers.
func TestActionTimestamps(t *testing.T) {
	now := time.Now().Unix()
	a := &Action{CreatedAt: now, UpdatedAt: now}

	if a.CreatedAtTime().Unix() != now {
		t.Errorf("CreatedAtTime().Unix() = %d, want %d", a.CreatedAtTime().Unix(), now)
	}

	if a.UpdatedAtTime().Unix() != now {
		t.Errorf("UpdatedAtTime().Unix() = %d, want %d", a.UpdatedAtTime().Unix(), now)
	}
}

// TestUUIDScan verifies UUID scans from driver values.
func TestUUIDScan(t *testing.T) {
	var u UUID

	if err := u.Scan([]byte("abc")); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if u.String() != "abc" {
		t.Errorf("Scan([]byte) = %q, want %q", u, "abc")
	}

	if err := u.Scan("def"); err != nil {
		t.Fatalf("Scan(string) failed: %v", err)
	}
	if u.String() != "def" {
		t.Errorf("Scan(string) = %q, want %q", u, "def")
	}

	if err := u.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if u != "" {
		t.Errorf("Scan(nil) = %q, want empty", u)
	}
}
