package services

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// schedMockSyncService implements driving.SyncService.
type schedMockSyncService struct {
	mu           stdsync.Mutex
	syncAllCalls int
	syncAllErr   error
}

func (m *schedMockSyncService) Sync(_ context.Context, _ string) error { return nil }

func (m *schedMockSyncService) SyncAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncAllCalls++
	return m.syncAllErr
}

func (m *schedMockSyncService) Watch(_ context.Context, _ string) error { return nil }

func (m *schedMockSyncService) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{SourceID: sourceID}, nil
}

func (m *schedMockSyncService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncAllCalls
}

// --- Tests ---

func TestNewScheduler(t *testing.T) {
	scheduler := NewScheduler(time.Minute, &schedMockSyncService{})

	require.NotNil(t, scheduler)
	assert.Equal(t, time.Minute, scheduler.interval)
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	scheduler := NewScheduler(0, &schedMockSyncService{})

	assert.Equal(t, defaultSyncInterval, scheduler.interval)
}

func TestScheduler_StartRunsImmediateSync(t *testing.T) {
	syncService := &schedMockSyncService{}
	scheduler := NewScheduler(time.Hour, syncService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg stdsync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())
	wg.Wait()
	scheduler.wg.Wait()

	// The hour-long interval never fired; only the immediate pass ran.
	assert.Equal(t, 1, syncService.calls())
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	syncService := &schedMockSyncService{}
	scheduler := NewScheduler(20*time.Millisecond, syncService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg stdsync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(120 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())
	wg.Wait()
	scheduler.wg.Wait()

	assert.GreaterOrEqual(t, syncService.calls(), 3)
}

func TestScheduler_SyncFailuresDoNotStopLoop(t *testing.T) {
	syncService := &schedMockSyncService{syncAllErr: errors.New("source down")}
	scheduler := NewScheduler(20*time.Millisecond, syncService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg stdsync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(120 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())
	wg.Wait()
	scheduler.wg.Wait()

	assert.GreaterOrEqual(t, syncService.calls(), 3)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(time.Minute, &schedMockSyncService{})

	assert.NoError(t, scheduler.Stop())
}

func TestScheduler_StopUnblocksStart(t *testing.T) {
	scheduler := NewScheduler(time.Hour, &schedMockSyncService{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(time.Hour, &schedMockSyncService{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg stdsync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// A second Start while running returns immediately.
	assert.NoError(t, scheduler.Start(context.Background()))

	require.NoError(t, scheduler.Stop())
	wg.Wait()
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler(time.Hour, &schedMockSyncService{})

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
