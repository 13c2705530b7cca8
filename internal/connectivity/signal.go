// Package connectivity defines the online/offline signal consumed by the
// sync engine. The concrete source (OS reachability, ping probe, host
// callback) lives in the host application; Manual is provided for hosts
// that forward platform events and for tests.
package connectivity

import "sync"

// Signal reports connectivity state and its transitions.
type Signal interface {
	// Online returns the current connectivity state.
	Online() bool

	// Changes returns a channel that receives the new state on every
	// transition. The channel is never closed by the signal.
	Changes() <-chan bool
}

// Manual is a Signal driven by explicit Set calls.
type Manual struct {
	mu     sync.RWMutex
	online bool
	subs   []chan bool
}

// NewManual creates a Manual signal with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{online: online}
}

// Online returns the current connectivity state.
func (m *Manual) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Changes returns a new subscription channel. Transitions are delivered
// best-effort: a subscriber that is not draining loses intermediate
// transitions rather than blocking Set.
func (m *Manual) Changes() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 4)
	m.subs = append(m.subs, ch)
	return ch
}

// Set updates the state and notifies subscribers on transitions.
// Setting the same state twice is a no-op.
func (m *Manual) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
