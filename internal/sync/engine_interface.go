// Package sync provides the engine interface consumed by the
// scheduler and host-facing bridges.
package sync

import (
	"context"
	"time"

	"github.com/halcyon-social/actionsync/internal/metrics"
	"github.com/halcyon-social/actionsync/internal/models"
)

// EngineInterface defines the engine operations other components
// depend on. It allows mocking in scheduler and bridge tests.
type EngineInterface interface {
	// QueueAction enqueues an action, cancelling a pending inverse.
	QueueAction(actionType models.ActionType, targetID string, actx ActionContext) error

	// CancelAction deletes an action by ID regardless of status.
	CancelAction(actionID string) error

	// SyncPendingActions drives all pending actions once.
	SyncPendingActions(ctx context.Context)

	// IsSyncing reports whether a drive loop is in flight.
	IsSyncing() bool

	// PendingActions returns the pending-action snapshot.
	PendingActions() []*models.Action

	// AllActions returns every action for the session.
	AllActions() []*models.Action

	// Updates returns the pending-actions stream.
	Updates() <-chan []*models.Action

	// Events returns the engine event stream.
	Events() <-chan Event

	// ClearOldCompletedActions purges old completed actions.
	ClearOldCompletedActions(olderThan time.Duration) (int, error)

	// Metrics returns the engine's in-process counter snapshot.
	Metrics() metrics.Snapshot
}

// Ensure *Engine implements the interface at compile time.
var _ EngineInterface = (*Engine)(nil)
