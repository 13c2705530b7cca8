// Package scheduler provides background scheduling for the action sync
// queue: a periodic re-drive of pending actions while online, and a
// periodic retention cleanup of old completed actions.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/halcyon-social/actionsync/internal/connectivity"
	"github.com/halcyon-social/actionsync/internal/logging"
	syncpkg "github.com/halcyon-social/actionsync/internal/sync"
)

// Scheduler drives the engine on timers. Connectivity transitions are
// handled by the engine itself; the scheduler exists for actions that
// became retriable again without a transition (a sync skipped while
// another was in flight, executors registered late).
type Scheduler struct {
	engine    syncpkg.EngineInterface
	signal    connectivity.Signal
	log       *logging.Logger
	config    Config
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// Config holds scheduler timing configuration.
type Config struct {
	// SyncInterval is how often to re-drive the pending queue while
	// online.
	SyncInterval time.Duration
	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration
	// CompletedRetention is the age past which completed actions are
	// purged.
	CompletedRetention time.Duration
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		SyncInterval:       15 * time.Minute,
		CleanupInterval:    1 * time.Hour,
		CompletedRetention: 7 * 24 * time.Hour,
	}
}

// New creates a Scheduler over an engine and connectivity signal.
func New(engine syncpkg.EngineInterface, signal connectivity.Signal, config Config) *Scheduler {
	if config.SyncInterval <= 0 {
		config.SyncInterval = DefaultConfig().SyncInterval
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	if config.CompletedRetention <= 0 {
		config.CompletedRetention = DefaultConfig().CompletedRetention
	}

	return &Scheduler{
		engine: engine,
		signal: signal,
		log:    logging.Get().WithComponent("scheduler"),
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start launches the background loops.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.syncLoop(ctx)
	go s.cleanupLoop(ctx)

	s.log.Info("Background scheduler started", map[string]interface{}{
		"sync_interval":    s.config.SyncInterval.String(),
		"cleanup_interval": s.config.CleanupInterval.String(),
	})
}

// Stop halts the background loops and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.log.Info("Background scheduler stopped")
}

// IsRunning reports whether the loops are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// syncLoop periodically re-drives the pending queue while online.
func (s *Scheduler) syncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.signal.Online() {
				continue
			}
			if len(s.engine.PendingActions()) == 0 {
				continue
			}
			s.log.Debug("Periodic sync tick")
			s.engine.SyncPendingActions(ctx)
		}
	}
}

// cleanupLoop periodically purges old completed actions.
func (s *Scheduler) cleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			n, err := s.engine.ClearOldCompletedActions(s.config.CompletedRetention)
			if err != nil {
				s.log.Error("Retention cleanup failed", err)
				continue
			}
			if n > 0 {
				s.log.Info("Purged old completed actions", map[string]interface{}{"count": n})
			}
		}
	}
}
