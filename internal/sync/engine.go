// Package sync provides the offline action sync engine: queueing,
// conflict cancellation, and the connectivity-driven drive loop that
// replays pending actions against the remote write API.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halcyon-social/actionsync/internal/connectivity"
	"github.com/halcyon-social/actionsync/internal/db"
	apperrors "github.com/halcyon-social/actionsync/internal/errors"
	"github.com/halcyon-social/actionsync/internal/logging"
	"github.com/halcyon-social/actionsync/internal/metrics"
	"github.com/halcyon-social/actionsync/internal/models"
	"github.com/halcyon-social/actionsync/internal/retry"
)

// Executor performs the actual remote effect for one action. Executors
// must tolerate being invoked more than once for the same action: after
// a crash mid-sync the prior attempt's outcome is unknown and the
// action is replayed (at-least-once delivery).
type Executor func(ctx context.Context, action *models.Action) error

// ActionContext carries optional fields passed through to the executor
// uninterpreted.
type ActionContext struct {
	AuthorPubkey  string
	AddressableID string
	TargetKind    int
}

// Engine owns one user session's action queue: the in-memory mirror of
// the store, the executor registry, and the sequential drive loop.
// Construct one per user session with New; there is no global instance.
type Engine struct {
	repo       db.ActionRepository
	signal     connectivity.Signal
	policy     retry.Policy
	userPubkey string
	log        *logging.Logger
	metrics    metrics.Collector

	// mu guards the cache, the executor registry, and serializes the
	// read-then-write conflict check in QueueAction.
	mu        sync.RWMutex
	pending   []*models.Action
	all       []*models.Action
	executors map[models.ActionType]Executor

	// syncMu guards the single-flight flag only.
	syncMu    sync.Mutex
	isSyncing bool

	updates chan []*models.Action
	events  chan Event

	lifecycleMu sync.Mutex
	started     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// New creates an Engine for one user session with injected
// collaborators. Call Start to subscribe to connectivity and run the
// startup recovery pass.
func New(userPubkey string, repo db.ActionRepository, signal connectivity.Signal, policy retry.Policy) *Engine {
	return &Engine{
		repo:       repo,
		signal:     signal,
		policy:     policy,
		userPubkey: userPubkey,
		log:        logging.Get().WithComponent("sync-engine"),
		executors:  make(map[models.ActionType]Executor),
		updates:    make(chan []*models.Action, 1),
		events:     make(chan Event, 16),
	}
}

// RegisterExecutor installs the executor for one action type. Host
// applications register all six types at startup; a type without an
// executor is a configuration defect and its actions stay pending.
func (e *Engine) RegisterExecutor(actionType models.ActionType, fn Executor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executors[actionType] = fn
}

// QueueAction enqueues a social action for deferred delivery. Queuing
// the logical inverse of a still-pending action cancels both: the
// pending row is deleted and nothing new is persisted. Queuing the same
// type again replaces the previous pending action.
func (e *Engine) QueueAction(actionType models.ActionType, targetID string, actx ActionContext) error {
	if !actionType.IsValid() {
		return apperrors.New(apperrors.ErrActionInvalidType, fmt.Sprintf("unknown action type %q", actionType))
	}
	if targetID == "" {
		return apperrors.New(apperrors.ErrValidation, "target id must not be empty")
	}
	if e.userPubkey == "" {
		return apperrors.New(apperrors.ErrValidation, "user pubkey must not be empty")
	}

	// The conflict check is a read-then-write; the lock keeps it atomic
	// against concurrent callers in the same session.
	e.mu.Lock()
	defer e.mu.Unlock()

	inverse, _ := actionType.Inverse()

	existing, err := e.repo.FindConflictingAction(e.userPubkey, targetID, inverse)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "conflict lookup failed", err)
	}

	if existing != nil {
		// The two cancel out with zero persisted side effects.
		if err := e.repo.DeleteAction(string(existing.ID)); err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, "failed to cancel inverse action", err)
		}

		e.log.Debug("Cancelled inverse pending action", map[string]interface{}{
			"type": actionType, "inverse": inverse, "target_id": targetID,
		})
		e.metrics.ActionCancelled()

		e.refreshCacheLocked()
		return nil
	}

	action := &models.Action{
		Type:          actionType,
		TargetID:      targetID,
		UserPubkey:    e.userPubkey,
		AuthorPubkey:  actx.AuthorPubkey,
		AddressableID: actx.AddressableID,
		TargetKind:    actx.TargetKind,
		Status:        models.ActionStatusPending,
		RetryCount:    0,
	}

	if err := e.repo.UpsertAction(action); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to persist action", err)
	}

	e.log.Debug("Queued action", map[string]interface{}{
		"action_id": action.ID, "type": actionType, "target_id": targetID,
	})
	e.metrics.ActionQueued()

	e.refreshCacheLocked()
	return nil
}

// CancelAction deletes an action by ID regardless of status
// (user-initiated undo).
func (e *Engine) CancelAction(actionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	action, err := e.repo.GetAction(actionID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to look up action", err)
	}
	if action == nil {
		return apperrors.New(apperrors.ErrActionNotFound, "no action with id "+actionID)
	}

	if err := e.repo.DeleteAction(actionID); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to cancel action", err)
	}
	e.metrics.ActionCancelled()

	e.refreshCacheLocked()
	return nil
}

// HasPendingAction reports whether a pending or syncing action exists
// for (target, type). Pure cache read; used for optimistic UI state.
func (e *Engine) HasPendingAction(targetID string, actionType models.ActionType) bool {
	return e.GetPendingAction(targetID, actionType) != nil
}

// GetPendingAction returns a copy of the live action for
// (target, type), or nil. Pure cache read.
func (e *Engine) GetPendingAction(targetID string, actionType models.ActionType) *models.Action {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, a := range e.all {
		if a.TargetID == targetID && a.Type == actionType && !a.Status.IsTerminal() {
			copy := *a
			return &copy
		}
	}
	return nil
}

// PendingActions returns a copy of the pending-action cache.
func (e *Engine) PendingActions() []*models.Action {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyActions(e.pending)
}

// AllActions returns a copy of the full action cache, terminal rows
// included.
func (e *Engine) AllActions() []*models.Action {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyActions(e.all)
}

// IsSyncing reports whether a drive loop is in flight.
func (e *Engine) IsSyncing() bool {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	return e.isSyncing
}

// Updates returns the pending-actions stream. Delivery is latest-wins:
// a subscriber that is not draining sees the newest snapshot.
func (e *Engine) Updates() <-chan []*models.Action {
	return e.updates
}

// Events returns the engine event stream (sync lifecycle, failures).
// Events are dropped rather than blocking the engine when the buffer
// is full.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Stats returns per-status action counts from the store.
func (e *Engine) Stats() (map[models.ActionStatus]int, error) {
	return e.repo.CountByStatus(e.userPubkey)
}

// Metrics returns a snapshot of the engine's in-process counters.
func (e *Engine) Metrics() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// SyncPendingActions drives all pending actions through their
// executors, sequentially and oldest first. A second concurrent call
// returns immediately (single-flight); the loop is a no-op while
// offline or when nothing is pending.
func (e *Engine) SyncPendingActions(ctx context.Context) {
	e.syncMu.Lock()
	if e.isSyncing {
		e.syncMu.Unlock()
		e.log.Debug("Sync already in progress, skipping")
		return
	}
	e.isSyncing = true
	e.syncMu.Unlock()

	defer func() {
		e.syncMu.Lock()
		e.isSyncing = false
		e.syncMu.Unlock()
	}()

	if !e.signal.Online() {
		e.log.Debug("Offline, skipping sync")
		return
	}

	pending, err := e.repo.ListPendingActions(e.userPubkey)
	if err != nil {
		e.log.Error("Failed to load pending actions", err)
		e.emitEvent(Event{Type: EventSyncFailed, Error: err.Error()})
		return
	}
	if len(pending) == 0 {
		return
	}

	e.log.Info("Sync started", map[string]interface{}{"pending": len(pending)})
	e.emitEvent(Event{Type: EventSyncStarted, Count: len(pending)})
	e.metrics.SyncDrive()

	synced := 0
	for _, action := range pending {
		if ctx.Err() != nil {
			break
		}
		// Partial progress is preserved; the rest stay pending.
		if !e.signal.Online() {
			e.log.Warn("Connectivity lost mid-sync, stopping", map[string]interface{}{
				"remaining": len(pending) - synced,
			})
			break
		}

		e.syncOne(ctx, action)
		synced++

		e.refreshCache()
		e.emitEvent(Event{Type: EventSyncProgress, ActionID: string(action.ID), Count: synced})
	}

	e.log.Info("Sync finished", map[string]interface{}{"processed": synced})
	e.emitEvent(Event{Type: EventSyncCompleted, Count: synced})
}

// syncOne attempts delivery of a single action and persists the
// resulting transition.
func (e *Engine) syncOne(ctx context.Context, action *models.Action) {
	e.mu.RLock()
	executor, ok := e.executors[action.Type]
	e.mu.RUnlock()

	if !ok {
		// Configuration defect, not a data defect: leave it pending.
		e.log.Warn("No executor registered", map[string]interface{}{
			"type": action.Type, "action_id": action.ID,
		})
		return
	}

	if err := e.repo.UpdateActionStatus(string(action.ID), models.ActionStatusSyncing, action.RetryCount, action.LastError); err != nil {
		// Leave the action in its prior state; next cycle retries it.
		e.log.Error("Failed to mark action syncing", err, map[string]interface{}{
			"action_id": action.ID,
		})
		return
	}

	attempts, err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		return executor(ctx, action)
	})

	if err == nil {
		if uerr := e.repo.UpdateActionStatus(string(action.ID), models.ActionStatusCompleted, action.RetryCount+attempts, ""); uerr != nil {
			e.log.Error("Failed to mark action completed", uerr, map[string]interface{}{
				"action_id": action.ID,
			})
		}
		e.log.Debug("Action synced", map[string]interface{}{
			"action_id": action.ID, "type": action.Type,
		})
		e.metrics.ActionSynced()
		e.metrics.RetriesSpent(attempts)
		return
	}

	retries := action.RetryCount + attempts
	if uerr := e.repo.UpdateActionStatus(string(action.ID), models.ActionStatusFailed, retries, err.Error()); uerr != nil {
		e.log.Error("Failed to mark action failed", uerr, map[string]interface{}{
			"action_id": action.ID,
		})
		return
	}

	e.log.Warn("Action failed terminally", map[string]interface{}{
		"action_id": action.ID, "type": action.Type,
		"retries": retries, "error": err.Error(),
	})
	e.emitEvent(Event{Type: EventActionFailed, ActionID: string(action.ID), Error: err.Error()})
	e.metrics.ActionFailed()
	e.metrics.RetriesSpent(attempts)
}

// ClearOldCompletedActions purges completed actions older than the
// retention window.
func (e *Engine) ClearOldCompletedActions(olderThan time.Duration) (int, error) {
	n, err := e.repo.DeleteOldCompleted(e.userPubkey, time.Now().Add(-olderThan))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "retention cleanup failed", err)
	}
	if n > 0 {
		e.refreshCache()
	}
	return n, nil
}

// ClearAll removes every action for the session (logout).
func (e *Engine) ClearAll() error {
	if err := e.repo.ClearUser(e.userPubkey); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to clear actions", err)
	}
	e.refreshCache()
	return nil
}

// RetryFailedActions resets failed actions to pending with a fresh
// retry budget and returns how many were reset. The next sync picks
// them up.
func (e *Engine) RetryFailedActions() (int, error) {
	n, err := e.repo.RetryFailed(e.userPubkey)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to reset failed actions", err)
	}
	if n > 0 {
		e.refreshCache()
	}
	return n, nil
}

// Start runs the startup recovery pass and subscribes to connectivity
// transitions and the store's change stream. An offline→online
// transition triggers a sync.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.started {
		return nil
	}

	// Interrupted attempts from a prior process are not confirmed;
	// replay them.
	reset, err := e.repo.ResetSyncingToPending(e.userPubkey)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "startup recovery failed", err)
	}
	if reset > 0 {
		e.log.Info("Recovered interrupted actions", map[string]interface{}{"count": reset})
	}

	e.refreshCache()

	e.started = true
	e.stopCh = make(chan struct{})

	changes := e.signal.Changes()
	storeUpdates, cancelWatch := e.repo.WatchPending(e.userPubkey)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancelWatch()

		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case online := <-changes:
				if online {
					e.log.Info("Connectivity restored, syncing")
					e.SyncPendingActions(ctx)
				}
			case _, ok := <-storeUpdates:
				if !ok {
					return
				}
				// External writers mutated the store; mirror them.
				e.refreshCache()
			}
		}
	}()

	return nil
}

// Stop halts the connectivity subscription. Safe to call twice.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if !e.started {
		return
	}
	e.started = false
	close(e.stopCh)
	e.wg.Wait()
}

// refreshCache reloads the in-memory mirror from the store and
// re-emits the pending snapshot.
func (e *Engine) refreshCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshCacheLocked()
}

// refreshCacheLocked requires e.mu held.
func (e *Engine) refreshCacheLocked() {
	all, err := e.repo.ListAllActions(e.userPubkey)
	if err != nil {
		e.log.Error("Failed to refresh action cache", err)
		return
	}

	pending := make([]*models.Action, 0, len(all))
	for _, a := range all {
		if a.Status == models.ActionStatusPending {
			pending = append(pending, a)
		}
	}

	e.all = all
	e.pending = pending

	// Latest-wins push to the updates stream.
	snapshot := copyActions(pending)
	select {
	case e.updates <- snapshot:
	default:
		select {
		case <-e.updates:
		default:
		}
		select {
		case e.updates <- snapshot:
		default:
		}
	}
}

// emitEvent pushes an event without ever blocking the engine.
func (e *Engine) emitEvent(ev Event) {
	ev.Timestamp = time.Now().Unix()
	select {
	case e.events <- ev:
	default:
	}
}

// copyActions deep-copies a slice of actions.
func copyActions(actions []*models.Action) []*models.Action {
	out := make([]*models.Action, len(actions))
	for i, a := range actions {
		copy := *a
		out[i] = &copy
	}
	return out
}
