// Package background runs work that must outlive the request that started it.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	deliverycontext "conduit/internal/delivery/context"
	"conduit/internal/domain/service"
	"conduit/internal/errors"

	"go.uber.org/fx"
)

// RunnerParams holds dependencies for the runner, injected by Fx.
type RunnerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Logger *slog.Logger
}

// Runner tracks detached tasks so shutdown can wait for them.
type Runner struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

type task struct {
	done chan struct{}
	err  error
}

func (t *task) Done() <-chan struct{} { return t.done }

// Err is only meaningful after Done is closed.
func (t *task) Err() error { return t.err }

// NewRunner creates the runner and drains in-flight tasks on shutdown.
func NewRunner(params RunnerParams) service.BackgroundRunner {
	r := New(params.Logger)
	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return r.Wait(ctx)
		},
	})

	return r
}

// New creates a runner without lifecycle hooks.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{logger: logger}
}

// Detach runs fn on its own goroutine with a context that keeps ctx's values
// but is never cancelled by it. Errors and panics are logged, not returned.
func (r *Runner) Detach(ctx context.Context, name string, fn func(ctx context.Context) error) service.DetachedTask {
	detached := context.WithoutCancel(ctx)
	logger := deliverycontext.GetLoggerOrDefault(ctx, r.logger).With(slog.String("task", name))
	t := &task{done: make(chan struct{})}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(t.done)
		defer func() {
			if rec := recover(); rec != nil {
				t.err = errors.Errorf("panic: %v", rec)
				logger.Error("Background task panicked", slog.String("panic", fmt.Sprint(rec)))
			}
		}()

		start := time.Now()
		if err := fn(detached); err != nil {
			t.err = err
			logger.Error("Background task failed", slog.Any("error", err))

			return
		}
		logger.Debug("Background task finished", slog.Duration("elapsed", time.Since(start)))
	}()

	return t
}

// Wait blocks until every detached task has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "background tasks still running")
	}
}

// Module provides the background FX module.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewRunner),
)
