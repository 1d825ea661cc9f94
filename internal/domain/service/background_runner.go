package service

import "context"

// DetachedTask is a handle to work that outlives the request that started it.
type DetachedTask interface {
	// Done is closed once the task has finished.
	Done() <-chan struct{}
	// Err returns the task's error after Done is closed.
	Err() error
}

// BackgroundRunner starts detached tasks. The task context keeps the values of
// the parent context (request logger, request id) but not its cancellation.
// Failures are logged by the runner and never reach the caller.
type BackgroundRunner interface {
	Detach(ctx context.Context, name string, fn func(ctx context.Context) error) DetachedTask
}
