// Package metrics provides unit tests for the queue counters.
package metrics

import (
	"sync"
	"testing"
)

// TestCollectorCounts verifies each counter advances independently.
func TestCollectorCounts(t *testing.T) {
	var c Collector

	c.ActionQueued()
	c.ActionQueued()
	c.ActionCancelled()
	c.SyncDrive()
	c.ActionSynced()
	c.ActionFailed()
	c.RetriesSpent(2)
	c.RetriesSpent(0)
	c.RetriesSpent(-1)

	s := c.Snapshot()
	if s.ActionsQueued != 2 {
		t.Errorf("ActionsQueued = %d, want 2", s.ActionsQueued)
	}
	if s.ActionsCancelled != 1 {
		t.Errorf("ActionsCancelled = %d, want 1", s.ActionsCancelled)
	}
	if s.SyncDrives != 1 {
		t.Errorf("SyncDrives = %d, want 1", s.SyncDrives)
	}
	if s.ActionsSynced != 1 {
		t.Errorf("ActionsSynced = %d, want 1", s.ActionsSynced)
	}
	if s.ActionsFailed != 1 {
		t.Errorf("ActionsFailed = %d, want 1", s.ActionsFailed)
	}
	if s.RetriesSpent != 2 {
		t.Errorf("RetriesSpent = %d, want 2", s.RetriesSpent)
	}
}

// TestCollectorConcurrent verifies counters under parallel writers.
func TestCollectorConcurrent(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.ActionQueued()
			}
		}()
	}
	wg.Wait()

	if got := c.Snapshot().ActionsQueued; got != 1000 {
		t.Errorf("ActionsQueued = %d, want 1000", got)
	}
}
