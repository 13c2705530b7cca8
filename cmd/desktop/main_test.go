// Package main tests for desktop server routing.
// These tests verify route registration and REST behavior over an
// in-memory queue.
package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/halcyon-social/actionsync/internal/connectivity"
	"github.com/halcyon-social/actionsync/internal/db"
	"github.com/halcyon-social/actionsync/internal/logging"
	"github.com/halcyon-social/actionsync/internal/retry"
	syncpkg "github.com/halcyon-social/actionsync/internal/sync"
)

// setupTestServer builds a mux over an in-memory engine.
func setupTestServer(t *testing.T) (*http.ServeMux, *syncpkg.Engine, *connectivity.Manual) {
	t.Helper()

	logging.Init(os.Stdout, logging.LevelError)

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	repository := db.NewRepository(database.DB)
	signal := connectivity.NewManual(true)

	policy := retry.DefaultPolicy()
	engine := syncpkg.New("npub1testuser", repository, signal, policy)

	hub := NewWSHub()
	return newMux(engine, signal, hub), engine, signal
}

func TestHealthCheck(t *testing.T) {
	mux, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Health check returned status %d", w.Code)
	}

	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", w.Header().Get("Content-Type"))
	}

	expectedBody := `{"status":"ok","service":"actionsync-desktop"}`
	if w.Body.String() != expectedBody {
		t.Errorf("Expected body %q, got %q", expectedBody, w.Body.String())
	}
}

func TestHealthCheck_MethodNotAllowed(t *testing.T) {
	mux, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestQueueAction_REST(t *testing.T) {
	mux, engine, _ := setupTestServer(t)

	body := `{"type":"like","target_id":"video123","author_pubkey":"npub1author"}`
	req := httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	pending := engine.PendingActions()
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending action, got %d", len(pending))
	}
	if pending[0].TargetID != "video123" {
		t.Errorf("TargetID = %q, want video123", pending[0].TargetID)
	}
}

func TestQueueAction_InvalidType(t *testing.T) {
	mux, _, _ := setupTestServer(t)

	body := `{"type":"boost","target_id":"video123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestListActions_REST(t *testing.T) {
	mux, engine, _ := setupTestServer(t)

	if err := engine.QueueAction("like", "video123", syncpkg.ActionContext{}); err != nil {
		t.Fatalf("QueueAction failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/actions", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "video123") {
		t.Errorf("Expected listing to contain video123, got %s", w.Body.String())
	}
}

func TestCancelAction_REST(t *testing.T) {
	mux, engine, _ := setupTestServer(t)

	if err := engine.QueueAction("like", "video123", syncpkg.ActionContext{}); err != nil {
		t.Fatalf("QueueAction failed: %v", err)
	}
	pending := engine.PendingActions()
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending action, got %d", len(pending))
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/actions/"+string(pending[0].ID), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if len(engine.PendingActions()) != 0 {
		t.Error("Expected empty queue after cancel")
	}
}

func TestCancelAction_Missing(t *testing.T) {
	mux, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/actions/nonexistent", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConnectivity_REST(t *testing.T) {
	mux, _, signal := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/connectivity", strings.NewReader(`{"online":false}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if signal.Online() {
		t.Error("Signal should report offline")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/connectivity", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"online":false`) {
		t.Errorf("Expected offline status, got %s", w.Body.String())
	}
}

func TestMetrics_REST(t *testing.T) {
	mux, engine, _ := setupTestServer(t)

	if err := engine.QueueAction("like", "video123", syncpkg.ActionContext{}); err != nil {
		t.Fatalf("QueueAction failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"actions_queued":1`) {
		t.Errorf("Expected one queued action in metrics, got %s", w.Body.String())
	}
}

func TestSyncTrigger_REST(t *testing.T) {
	mux, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}
}
