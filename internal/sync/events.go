// Package sync provides engine event definitions.
package sync

// EventType identifies an engine event.
type EventType string

const (
	// EventSyncStarted fires when a drive loop begins; Count is the
	// number of pending actions.
	EventSyncStarted EventType = "sync.started"
	// EventSyncProgress fires after each processed action.
	EventSyncProgress EventType = "sync.progress"
	// EventSyncCompleted fires when a drive loop finishes; Count is the
	// number of processed actions.
	EventSyncCompleted EventType = "sync.completed"
	// EventSyncFailed fires when the drive loop could not run at all.
	EventSyncFailed EventType = "sync.failed"
	// EventActionFailed fires when one action reaches terminal failure.
	EventActionFailed EventType = "action.failed"
)

// Event is one engine lifecycle notification.
type Event struct {
	Type      EventType `json:"type"`
	ActionID  string    `json:"action_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp int64     `json:"timestamp"`
}
