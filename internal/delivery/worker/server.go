// Package worker runs the periodic jobs of the service.
package worker

import (
	"context"
	"log/slog"

	"conduit/config"
	"conduit/internal/delivery"
	"conduit/internal/delivery/worker/handler"
	"conduit/internal/domain/lifecycle"
	"conduit/internal/errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

type workerServer struct {
	cfg     *config.Config
	logger  *slog.Logger
	cron    *cron.Cron
	enabled bool
}

// ServerParams holds dependencies for the worker server
type ServerParams struct {
	fx.In

	Lc             fx.Lifecycle
	Cfg            *config.Config
	Logger         *slog.Logger
	RefreshHandler *handler.RefreshHandler
}

// NewServer schedules the token refresh sweep on cfg.TokenRefresh.Spec.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	logger := params.Logger.With(slog.String("component", "worker"))
	cronLog := &slogCronLogger{logger: logger}

	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	srv := &workerServer{
		cfg:     params.Cfg,
		logger:  logger,
		cron:    scheduler,
		enabled: params.Cfg.TokenRefresh.Enabled,
	}

	if srv.enabled {
		_, err := scheduler.AddFunc(params.Cfg.TokenRefresh.Spec, func() {
			_, _ = params.RefreshHandler.Sweep(context.Background())
		})
		if err != nil {
			return nil, errors.Wrapf(err, "invalid token refresh schedule %q", params.Cfg.TokenRefresh.Spec)
		}
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// Serve blocks running the scheduler until stop is called.
func (s *workerServer) Serve(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("Token refresh sweep disabled")

		return nil
	}

	s.logger.Info("Starting worker", slog.String("schedule", s.cfg.TokenRefresh.Spec))
	s.cron.Run()

	return nil
}

func (s *workerServer) stop(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down worker")

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-shutdownCtx.Done():
		return errors.Wrap(shutdownCtx.Err(), "running sweep did not finish")
	}
}

// slogCronLogger adapts cron's logr-style logger to slog.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
