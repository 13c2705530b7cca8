// Package main provides the embedded action queue server for desktop
// platforms. Desktop shells communicate via REST/WebSocket on
// localhost:8090: actions are queued over REST, queue and sync events
// stream back over the WebSocket.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/halcyon-social/actionsync/internal/config"
	"github.com/halcyon-social/actionsync/internal/connectivity"
	"github.com/halcyon-social/actionsync/internal/db"
	"github.com/halcyon-social/actionsync/internal/logging"
	"github.com/halcyon-social/actionsync/internal/models"
	"github.com/halcyon-social/actionsync/internal/retry"
	syncpkg "github.com/halcyon-social/actionsync/internal/sync"
	"github.com/halcyon-social/actionsync/internal/sync/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.UserPubkey == "" {
		log.Fatal("ACTIONSYNC_USER_PUBKEY must be set")
	}

	logging.Init(os.Stdout, logging.LogLevel(cfg.LogLevel))

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Up(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	repository := db.NewRepository(database.DB)
	defer repository.Close()

	// The desktop shell reports connectivity over REST; start online.
	signal := connectivity.NewManual(true)

	policy := retry.Policy{
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.DelayMultiplier,
		MaxRetries:   cfg.MaxRetries,
		Jitter:       true,
	}

	engine := syncpkg.New(cfg.UserPubkey, repository, signal, policy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		log.Fatalf("Failed to start sync engine: %v", err)
	}
	defer engine.Stop()

	sched := scheduler.New(engine, signal, scheduler.Config{
		SyncInterval:       cfg.SyncInterval,
		CleanupInterval:    cfg.CleanupInterval,
		CompletedRetention: cfg.CompletedRetention,
	})
	sched.Start(ctx)
	defer sched.Stop()

	hub := NewWSHub()
	go runBridge(ctx, engine, hub)

	mux := newMux(engine, signal, hub)

	port := "8090"
	log.Printf("ActionSync desktop server starting on port %s...", port)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}

// queueRequest is the REST payload for queuing an action.
type queueRequest struct {
	Type          string `json:"type"`
	TargetID      string `json:"target_id"`
	AuthorPubkey  string `json:"author_pubkey,omitempty"`
	AddressableID string `json:"addressable_id,omitempty"`
	TargetKind    int    `json:"target_kind,omitempty"`
}

// newMux wires the REST routes for the desktop shell.
func newMux(engine syncpkg.EngineInterface, signal *connectivity.Manual, hub *WSHub) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"actionsync-desktop"}`))
	})

	// Queue routes
	mux.HandleFunc("/api/actions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, engine.AllActions())

		case http.MethodPost:
			var req queueRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			err := engine.QueueAction(models.ActionType(req.Type), req.TargetID, syncpkg.ActionContext{
				AuthorPubkey:  req.AuthorPubkey,
				AddressableID: req.AddressableID,
				TargetKind:    req.TargetKind,
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Cancel one action by ID
	mux.HandleFunc("/api/actions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		actionID := strings.TrimPrefix(r.URL.Path, "/api/actions/")
		if actionID == "" {
			http.Error(w, "Missing action ID", http.StatusBadRequest)
			return
		}
		if err := engine.CancelAction(actionID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Connectivity reported by the desktop shell
	mux.HandleFunc("/api/connectivity", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]bool{"online": signal.Online()})

		case http.MethodPost:
			var req struct {
				Online bool `json:"online"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			signal.Set(req.Online)
			hub.BroadcastConnectivityChanged(req.Online)
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// In-process counters; local only, never transmitted
	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, engine.Metrics())
	})

	// Manual sync trigger
	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		go engine.SyncPendingActions(context.Background())
		w.WriteHeader(http.StatusAccepted)
	})

	// WebSocket event stream
	mux.HandleFunc("/ws", HandleWebSocket(hub))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
