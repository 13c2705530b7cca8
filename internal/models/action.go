// Package models provides data model definitions for the action sync queue.
package models

import (
	"database/sql/driver"
	"time"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	if value == nil {
		*u = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*u = UUID(v)
	case string:
		*u = UUID(v)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// ActionType identifies one kind of queued social mutation.
type ActionType string

const (
	ActionLike     ActionType = "like"
	ActionUnlike   ActionType = "unlike"
	ActionRepost   ActionType = "repost"
	ActionUnrepost ActionType = "unrepost"
	ActionFollow   ActionType = "follow"
	ActionUnfollow ActionType = "unfollow"
)

// inverses maps each action type to the type that logically cancels it.
var inverses = map[ActionType]ActionType{
	ActionLike:     ActionUnlike,
	ActionUnlike:   ActionLike,
	ActionRepost:   ActionUnrepost,
	ActionUnrepost: ActionRepost,
	ActionFollow:   ActionUnfollow,
	ActionUnfollow: ActionFollow,
}

// Inverse returns the action type that cancels t, and whether t is a
// known type.
func (t ActionType) Inverse() (ActionType, bool) {
	inv, ok := inverses[t]
	return inv, ok
}

// IsValid reports whether t is one of the six enumerated action types.
func (t ActionType) IsValid() bool {
	_, ok := inverses[t]
	return ok
}

// ActionStatus represents the sync state of a queued action.
type ActionStatus string

const (
	// ActionStatusPending means the action is waiting to be synced.
	ActionStatusPending ActionStatus = "pending"
	// ActionStatusSyncing means a sync attempt is in flight.
	ActionStatusSyncing ActionStatus = "syncing"
	// ActionStatusCompleted means the remote effect landed. Terminal.
	ActionStatusCompleted ActionStatus = "completed"
	// ActionStatusFailed means the retry budget is exhausted or the
	// error was not retriable. Terminal; never retried automatically.
	ActionStatusFailed ActionStatus = "failed"
)

// IsTerminal reports whether s is a final state.
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusCompleted || s == ActionStatusFailed
}

// Action represents one queued social mutation targeting an entity.
// Cancellation and dedup are scoped per (UserPubkey, TargetID, Type);
// the context fields are passed through to the executor uninterpreted.
type Action struct {
	ID            UUID         `db:"id" json:"id"`
	Type          ActionType   `db:"type" json:"type"`
	TargetID      string       `db:"target_id" json:"target_id"`
	UserPubkey    string       `db:"user_pubkey" json:"user_pubkey"`
	AuthorPubkey  string       `db:"author_pubkey" json:"author_pubkey,omitempty"`
	AddressableID string       `db:"addressable_id" json:"addressable_id,omitempty"`
	TargetKind    int          `db:"target_kind" json:"target_kind,omitempty"`
	Status        ActionStatus `db:"status" json:"status"`
	RetryCount    int          `db:"retry_count" json:"retry_count"`
	LastError     string       `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     int64        `db:"created_at" json:"created_at"`
	UpdatedAt     int64        `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Action.
func (Action) TableName() string {
	return "actions"
}

// CreatedAtTime returns CreatedAt as time.Time.
func (a *Action) CreatedAtTime() time.Time {
	return time.Unix(a.CreatedAt, 0)
}

// UpdatedAtTime returns UpdatedAt as time.Time.
func (a *Action) UpdatedAtTime() time.Time {
	return time.Unix(a.UpdatedAt, 0)
}
