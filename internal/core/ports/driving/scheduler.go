package driving

import "context"

// Scheduler manages the recurring background passes.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// RunOnce executes every enabled task a single time, ignoring the
	// persisted schedule. Used by the one-shot CLI mode.
	RunOnce(ctx context.Context) error

	// Stop gracefully stops the scheduler, letting an in-flight tick
	// finish.
	Stop() error
}
