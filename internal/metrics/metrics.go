// Package metrics provides in-process counters for the action queue.
// Nothing is transmitted anywhere: counters live in memory and are
// exposed only through local surfaces (the desktop bridge's metrics
// endpoint, logs). Keeping collection local is a hard requirement for
// a client-side queue holding user activity.
package metrics

import "sync/atomic"

// Collector accumulates queue counters. All methods are safe for
// concurrent use. The zero value is ready.
type Collector struct {
	actionsQueued    atomic.Int64
	actionsCancelled atomic.Int64
	syncDrives       atomic.Int64
	actionsSynced    atomic.Int64
	actionsFailed    atomic.Int64
	retriesSpent     atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ActionsQueued    int64 `json:"actions_queued"`
	ActionsCancelled int64 `json:"actions_cancelled"`
	SyncDrives       int64 `json:"sync_drives"`
	ActionsSynced    int64 `json:"actions_synced"`
	ActionsFailed    int64 `json:"actions_failed"`
	RetriesSpent     int64 `json:"retries_spent"`
}

// ActionQueued records one enqueued action.
func (c *Collector) ActionQueued() { c.actionsQueued.Add(1) }

// ActionCancelled records one cancelled action, including inverse
// cancellations.
func (c *Collector) ActionCancelled() { c.actionsCancelled.Add(1) }

// SyncDrive records one drive of the pending queue.
func (c *Collector) SyncDrive() { c.syncDrives.Add(1) }

// ActionSynced records one action reaching completed.
func (c *Collector) ActionSynced() { c.actionsSynced.Add(1) }

// ActionFailed records one action reaching terminal failure.
func (c *Collector) ActionFailed() { c.actionsFailed.Add(1) }

// RetriesSpent records executor attempts beyond the first.
func (c *Collector) RetriesSpent(n int) {
	if n > 0 {
		c.retriesSpent.Add(int64(n))
	}
}

// Snapshot returns a copy of the current counter values.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		ActionsQueued:    c.actionsQueued.Load(),
		ActionsCancelled: c.actionsCancelled.Load(),
		SyncDrives:       c.syncDrives.Load(),
		ActionsSynced:    c.actionsSynced.Load(),
		ActionsFailed:    c.actionsFailed.Load(),
		RetriesSpent:     c.retriesSpent.Load(),
	}
}
