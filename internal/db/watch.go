// Package db provides change notification for the action store.
package db

import (
	"sync"

	"github.com/halcyon-social/actionsync/internal/models"
)

// pendingWatcher fans out pending-action snapshots to subscribers,
// keyed by user pubkey. Delivery is latest-wins: a subscriber that is
// not draining its channel sees the newest snapshot, not every
// intermediate one, and never blocks the store.
type pendingWatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan []*models.Action
}

func newPendingWatcher() *pendingWatcher {
	return &pendingWatcher{
		subs: make(map[string]map[int]chan []*models.Action),
	}
}

// subscribe registers a watcher for one user's pending snapshot.
func (w *pendingWatcher) subscribe(userPubkey string) (<-chan []*models.Action, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	ch := make(chan []*models.Action, 1)
	if w.subs[userPubkey] == nil {
		w.subs[userPubkey] = make(map[int]chan []*models.Action)
	}
	w.subs[userPubkey][id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if chans, ok := w.subs[userPubkey]; ok {
			if c, ok := chans[id]; ok {
				delete(chans, id)
				close(c)
			}
			if len(chans) == 0 {
				delete(w.subs, userPubkey)
			}
		}
	}

	return ch, cancel
}

// hasSubscribers reports whether anyone is watching this user.
func (w *pendingWatcher) hasSubscribers(userPubkey string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs[userPubkey]) > 0
}

// broadcast delivers a snapshot to all of a user's watchers.
func (w *pendingWatcher) broadcast(userPubkey string, pending []*models.Action) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs[userPubkey] {
		// Replace a stale undrained snapshot with the fresh one.
		select {
		case ch <- pending:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- pending:
			default:
			}
		}
	}
}

// closeAll closes every subscription, used on repository shutdown.
func (w *pendingWatcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for user, chans := range w.subs {
		for id, ch := range chans {
			close(ch)
			delete(chans, id)
		}
		delete(w.subs, user)
	}
}
