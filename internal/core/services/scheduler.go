package services

import (
	"context"
	"sync"
	"time"

	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// defaultSyncInterval is used when no interval is configured.
const defaultSyncInterval = 15 * time.Minute

// Ensure Scheduler implements the interface.
var _ driving.SchedulerService = (*Scheduler)(nil)

// Scheduler re-synchronises all sources on a fixed interval.
// Unchanged documents are skipped by fingerprint, so frequent runs stay
// cheap.
type Scheduler struct {
	interval time.Duration
	sync     driving.SyncService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that syncs every interval.
// Non-positive intervals fall back to the default.
func NewScheduler(interval time.Duration, syncService driving.SyncService) *Scheduler {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Scheduler{
		interval: interval,
		sync:     syncService,
	}
}

// Start runs an immediate sync and then the interval loop.
// It blocks until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	logger.Info("Scheduler started, syncing every %s", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

// Stop shuts the scheduler down, waiting for a running sync to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("Scheduler stopped")
	return nil
}

// runSync launches one sync pass and tracks it for shutdown.
func (s *Scheduler) runSync(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		started := time.Now()
		if err := s.sync.SyncAll(ctx); err != nil {
			logger.Warn("Scheduled sync failed: %v", err)
			return
		}
		logger.Debug("Scheduled sync finished in %s", time.Since(started).Round(time.Millisecond))
	}()
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
