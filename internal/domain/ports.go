package domain

import (
	"context"
	"time"
)

// QueryBackend is the port to the remote analytical engine. Implementations
// submit SQL, expose execution status for polling, and fetch the full tabular
// result in one call. Cells are raw optional strings exactly as the backend
// returns them; coercion is the query service's job.
type QueryBackend interface {
	// StartQuery submits sql for execution and returns an opaque execution ID.
	StartQuery(ctx context.Context, sql string) (string, error)
	// QueryStatus returns the current status of the given execution.
	QueryStatus(ctx context.Context, executionID string) (ExecutionStatus, error)
	// QueryResults fetches the complete result set. The first row is the
	// header row naming columns. A nil cell means the backend omitted a value.
	QueryResults(ctx context.Context, executionID string) ([][]*string, error)
}

// AlertStore is the port for the process-wide acknowledged-alert set.
// There is no read operation: the set's consumer is the frontend's own
// suppression logic, which only ever adds keys or resets the whole set.
type AlertStore interface {
	// Acknowledge records one alert key as acknowledged.
	Acknowledge(ctx context.Context, key string) error
	// Reset clears the whole set. Resetting an empty set is a no-op.
	Reset(ctx context.Context) error
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case. The query service's poll loop sleeps through one of these so
// tests can simulate status transitions without wall-clock delay.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
