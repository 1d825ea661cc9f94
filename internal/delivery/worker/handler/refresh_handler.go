// Package handler holds the jobs run by the worker delivery.
package handler

import (
	"context"
	"log/slog"
	"time"

	"conduit/internal/usecase"

	"go.uber.org/fx"
)

// defaultSweepTimeout bounds one pass over every expiring credential.
const defaultSweepTimeout = 5 * time.Minute

// RefreshHandler renews OAuth access tokens that are about to expire.
type RefreshHandler struct {
	refreshUC usecase.TokenRefreshUsecase
	logger    *slog.Logger
	timeout   time.Duration
}

// RefreshHandlerParams holds dependencies for the RefreshHandler
type RefreshHandlerParams struct {
	fx.In

	RefreshUC usecase.TokenRefreshUsecase
	Logger    *slog.Logger
}

// NewRefreshHandler creates a new RefreshHandler
func NewRefreshHandler(params RefreshHandlerParams) *RefreshHandler {
	return &RefreshHandler{
		refreshUC: params.RefreshUC,
		logger:    params.Logger,
		timeout:   defaultSweepTimeout,
	}
}

// Sweep refreshes every credential inside the batch window. Per-credential
// failures are handled by the usecase, so a sweep only fails as a whole when
// the listing itself fails.
func (h *RefreshHandler) Sweep(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	refreshed, err := h.refreshUC.RefreshAllExpiring(ctx)
	if err != nil {
		h.logger.Error("Token refresh sweep failed", slog.Any("error", err))

		return 0, err
	}

	h.logger.Info("Token refresh sweep finished",
		slog.Int("refreshed", refreshed),
		slog.Duration("elapsed", time.Since(start)),
	)

	return refreshed, nil
}
