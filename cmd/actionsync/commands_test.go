package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/halcyon-social/actionsync/internal/models"
)

// TestStatusLabel verifies each sync state renders its own label.
func TestStatusLabel(t *testing.T) {
	color.NoColor = true

	cases := []struct {
		status models.ActionStatus
		want   string
	}{
		{models.ActionStatusPending, "pending"},
		{models.ActionStatusSyncing, "syncing"},
		{models.ActionStatusCompleted, "completed"},
		{models.ActionStatusFailed, "failed"},
		{models.ActionStatus("weird"), "weird"},
	}
	for _, tc := range cases {
		if got := statusLabel(tc.status); got != tc.want {
			t.Errorf("statusLabel(%s) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

// TestOpenRepoRequiresPubkey verifies the CLI refuses to run without a
// session pubkey.
func TestOpenRepoRequiresPubkey(t *testing.T) {
	t.Setenv("ACTIONSYNC_USER_PUBKEY", "")
	t.Setenv("ACTIONSYNC_DATA_DIR", t.TempDir())

	_, _, _, err := openRepo()
	if err == nil {
		t.Fatal("Expected error without ACTIONSYNC_USER_PUBKEY")
	}
	if !strings.Contains(err.Error(), "ACTIONSYNC_USER_PUBKEY") {
		t.Errorf("Unexpected error: %v", err)
	}
}

// TestOpenRepo verifies the happy path opens and migrates a database.
func TestOpenRepo(t *testing.T) {
	t.Setenv("ACTIONSYNC_USER_PUBKEY", "npub1cliuser")
	t.Setenv("ACTIONSYNC_DATA_DIR", t.TempDir())

	repo, user, cleanup, err := openRepo()
	if err != nil {
		t.Fatalf("openRepo failed: %v", err)
	}
	defer cleanup()

	if user != "npub1cliuser" {
		t.Errorf("user = %q, want npub1cliuser", user)
	}

	counts, err := repo.CountByStatus(user)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("Expected empty counts, got %v", counts)
	}
}
