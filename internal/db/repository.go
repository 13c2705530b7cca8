// Package db provides CRUD repository operations for queued actions.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/halcyon-social/actionsync/internal/logging"
	"github.com/halcyon-social/actionsync/internal/models"
	"github.com/halcyon-social/actionsync/internal/uuid"
)

// Repository provides persistence for queued actions. It is the single
// owner of the actions table; every mutation re-emits the pending
// snapshot for the affected user through the watch stream.
type Repository struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt

	watcher *pendingWatcher
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:      db,
		watcher: newPendingWatcher(),
	}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements and the watch streams.
func (r *Repository) Close() error {
	r.watcher.closeAll()

	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

const actionColumns = `id, type, target_id, user_pubkey, author_pubkey,
	addressable_id, target_kind, status, retry_count, last_error,
	created_at, updated_at`

// scanAction reads one action row.
func scanAction(row interface{ Scan(...interface{}) error }) (*models.Action, error) {
	var a models.Action
	err := row.Scan(
		&a.ID, &a.Type, &a.TargetID, &a.UserPubkey, &a.AuthorPubkey,
		&a.AddressableID, &a.TargetKind, &a.Status, &a.RetryCount,
		&a.LastError, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAction persists a new action. Any live (pending or syncing)
// action for the same (user, target, type) is replaced in the same
// transaction, so at most one live row per key ever exists.
func (r *Repository) UpsertAction(action *models.Action) error {
	now := time.Now().Unix()
	if action.ID == "" {
		action.ID = models.UUID(uuid.New())
	}
	if action.CreatedAt == 0 {
		action.CreatedAt = now
	}
	action.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM actions WHERE user_pubkey = ? AND target_id = ? AND type = ? AND status IN ('pending','syncing')`,
		action.UserPubkey, action.TargetID, action.Type,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to replace live action: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		action.ID, action.Type, action.TargetID, action.UserPubkey,
		action.AuthorPubkey, action.AddressableID, action.TargetKind,
		action.Status, action.RetryCount, action.LastError,
		action.CreatedAt, action.UpdatedAt,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	r.notifyPending(action.UserPubkey)
	return nil
}

// GetAction retrieves an action by ID. Returns nil without error when
// no row exists.
func (r *Repository) GetAction(id string) (*models.Action, error) {
	stmt, err := r.PrepareStmt(`SELECT ` + actionColumns + ` FROM actions WHERE id = ?`)
	if err != nil {
		return nil, err
	}

	action, err := scanAction(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return action, nil
}

// DeleteAction removes an action by ID regardless of status.
func (r *Repository) DeleteAction(id string) error {
	// Look up the owner first so the right watch stream is notified.
	action, err := r.GetAction(id)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}

	if action != nil {
		r.notifyPending(action.UserPubkey)
	}
	return nil
}

// ListPendingActions returns pending actions for a user, oldest first.
func (r *Repository) ListPendingActions(userPubkey string) ([]*models.Action, error) {
	return r.listByStatus(userPubkey, string(models.ActionStatusPending))
}

// ListAllActions returns every action for a user, oldest first.
func (r *Repository) ListAllActions(userPubkey string) ([]*models.Action, error) {
	return r.listByStatus(userPubkey, "")
}

func (r *Repository) listByStatus(userPubkey, status string) ([]*models.Action, error) {
	base := `SELECT ` + actionColumns + ` FROM actions WHERE user_pubkey = ?`
	order := ` ORDER BY created_at ASC, id ASC`

	var query string
	var args []interface{}

	if status != "" {
		query = base + ` AND status = ?` + order
		args = []interface{}{userPubkey, status}
	} else {
		query = base + order
		args = []interface{}{userPubkey}
	}

	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// FindConflictingAction returns the pending action for
// (user, target, type), or nil if none exists. Syncing actions are not
// conflict candidates: their network effect may already be in flight.
func (r *Repository) FindConflictingAction(userPubkey, targetID string, actionType models.ActionType) (*models.Action, error) {
	stmt, err := r.PrepareStmt(`SELECT ` + actionColumns + ` FROM actions
		WHERE user_pubkey = ? AND target_id = ? AND type = ? AND status = 'pending'
		LIMIT 1`)
	if err != nil {
		return nil, err
	}

	action, err := scanAction(stmt.QueryRow(userPubkey, targetID, actionType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return action, nil
}

// UpdateActionStatus persists a drive-loop state transition.
func (r *Repository) UpdateActionStatus(id string, status models.ActionStatus, retryCount int, lastError string) error {
	res, err := r.db.Exec(
		`UPDATE actions SET status = ?, retry_count = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		status, retryCount, lastError, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update action status: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("action %s not found", id)
	}

	action, err := r.GetAction(id)
	if err == nil && action != nil {
		r.notifyPending(action.UserPubkey)
	}
	return nil
}

// ResetSyncingToPending resets interrupted sync attempts on startup.
// Whether the prior attempt's network effect landed is unknowable, so
// not-yet-confirmed is the safe default (executors are at-least-once).
func (r *Repository) ResetSyncingToPending(userPubkey string) (int, error) {
	res, err := r.db.Exec(
		`UPDATE actions SET status = 'pending', updated_at = ? WHERE user_pubkey = ? AND status = 'syncing'`,
		time.Now().Unix(), userPubkey,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset syncing actions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if n > 0 {
		r.notifyPending(userPubkey)
	}
	return int(n), nil
}

// RetryFailed resets failed actions to pending with a fresh retry
// budget, for user-initiated "tap to retry".
func (r *Repository) RetryFailed(userPubkey string) (int, error) {
	res, err := r.db.Exec(
		`UPDATE actions SET status = 'pending', retry_count = 0, last_error = '', updated_at = ?
		 WHERE user_pubkey = ? AND status = 'failed'`,
		time.Now().Unix(), userPubkey,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed actions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if n > 0 {
		r.notifyPending(userPubkey)
	}
	return int(n), nil
}

// DeleteOldCompleted purges completed actions older than the cutoff and
// returns the number removed.
func (r *Repository) DeleteOldCompleted(userPubkey string, olderThan time.Time) (int, error) {
	res, err := r.db.Exec(
		`DELETE FROM actions WHERE user_pubkey = ? AND status = 'completed' AND updated_at < ?`,
		userPubkey, olderThan.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old completed actions: %w", err)
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// ClearUser removes every action for a user (logout cleanup).
func (r *Repository) ClearUser(userPubkey string) error {
	if _, err := r.db.Exec(`DELETE FROM actions WHERE user_pubkey = ?`, userPubkey); err != nil {
		return fmt.Errorf("failed to clear actions: %w", err)
	}

	r.notifyPending(userPubkey)
	return nil
}

// CountByStatus returns per-status action counts for a user.
func (r *Repository) CountByStatus(userPubkey string) (map[models.ActionStatus]int, error) {
	rows, err := r.db.Query(
		`SELECT status, COUNT(*) FROM actions WHERE user_pubkey = ? GROUP BY status`,
		userPubkey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ActionStatus]int)
	for rows.Next() {
		var status models.ActionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// WatchPending subscribes to pending-action snapshots for a user. The
// returned cancel function must be called to release the subscription.
func (r *Repository) WatchPending(userPubkey string) (<-chan []*models.Action, func()) {
	return r.watcher.subscribe(userPubkey)
}

// notifyPending re-emits the pending snapshot for a user after a
// mutation.
func (r *Repository) notifyPending(userPubkey string) {
	if !r.watcher.hasSubscribers(userPubkey) {
		return
	}

	pending, err := r.ListPendingActions(userPubkey)
	if err != nil {
		logging.Error("Failed to load pending snapshot for watchers", err,
			map[string]interface{}{"user_pubkey": userPubkey})
		return
	}

	r.watcher.broadcast(userPubkey, pending)
}
