// Package db provides the repository interface for queued actions.
package db

import (
	"time"

	"github.com/halcyon-social/actionsync/internal/models"
)

// ActionRepository defines the durable store contract the sync engine
// depends on. The interface allows mocking for engine tests.
type ActionRepository interface {
	// UpsertAction persists an action, replacing any live action with
	// the same (user, target, type).
	UpsertAction(action *models.Action) error

	// GetAction retrieves an action by ID; nil when absent.
	GetAction(id string) (*models.Action, error)

	// DeleteAction removes an action by ID regardless of status.
	DeleteAction(id string) error

	// ListPendingActions returns pending actions oldest first.
	ListPendingActions(userPubkey string) ([]*models.Action, error)

	// ListAllActions returns every action for a user, oldest first.
	ListAllActions(userPubkey string) ([]*models.Action, error)

	// FindConflictingAction returns the pending action for
	// (user, target, type), or nil.
	FindConflictingAction(userPubkey, targetID string, actionType models.ActionType) (*models.Action, error)

	// UpdateActionStatus persists a drive-loop state transition.
	UpdateActionStatus(id string, status models.ActionStatus, retryCount int, lastError string) error

	// ResetSyncingToPending recovers interrupted sync attempts.
	ResetSyncingToPending(userPubkey string) (int, error)

	// RetryFailed resets failed actions to pending with a fresh budget.
	RetryFailed(userPubkey string) (int, error)

	// DeleteOldCompleted purges completed actions older than the cutoff.
	DeleteOldCompleted(userPubkey string, olderThan time.Time) (int, error)

	// ClearUser removes every action for a user.
	ClearUser(userPubkey string) error

	// CountByStatus returns per-status action counts.
	CountByStatus(userPubkey string) (map[models.ActionStatus]int, error)

	// WatchPending subscribes to pending-action snapshots.
	WatchPending(userPubkey string) (<-chan []*models.Action, func())
}

// Ensure *Repository implements the interface at compile time.
var _ ActionRepository = (*Repository)(nil)
