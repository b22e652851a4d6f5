package driving

import "context"

// SchedulerService drives periodic re-synchronisation of all sources.
type SchedulerService interface {
	// Start begins the interval loop. Blocks until the context is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler, waiting for a running
	// sync to finish.
	Stop() error
}
