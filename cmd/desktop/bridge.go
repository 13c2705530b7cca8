// Package main provides the bridge between the sync engine and the
// WebSocket hub.
package main

import (
	"context"

	syncpkg "github.com/halcyon-social/actionsync/internal/sync"
)

// runBridge forwards engine streams to connected WebSocket clients
// until ctx is cancelled. Pending-queue snapshots become queue.updated
// broadcasts; engine events map one-to-one onto their wire types.
func runBridge(ctx context.Context, engine syncpkg.EngineInterface, hub *WSHub) {
	updates := engine.Updates()
	events := engine.Events()

	for {
		select {
		case <-ctx.Done():
			return

		case pending, ok := <-updates:
			if !ok {
				return
			}
			hub.BroadcastQueueUpdated(len(pending))

		case ev, ok := <-events:
			if !ok {
				return
			}
			forwardEvent(hub, ev)
		}
	}
}

// forwardEvent maps one engine event onto its hub broadcast.
func forwardEvent(hub *WSHub, ev syncpkg.Event) {
	switch ev.Type {
	case syncpkg.EventSyncStarted:
		hub.BroadcastSyncStarted(ev.Count)
	case syncpkg.EventSyncProgress:
		hub.BroadcastSyncProgress(ev.ActionID, ev.Count)
	case syncpkg.EventSyncCompleted:
		hub.BroadcastSyncCompleted(ev.Count)
	case syncpkg.EventSyncFailed:
		hub.BroadcastSyncFailed(ev.Error)
	case syncpkg.EventActionFailed:
		hub.BroadcastActionFailed(ev.ActionID, ev.Error)
	}
}
