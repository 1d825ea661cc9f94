package handler

import (
	"context"
	"log/slog"
	"net/http"

	"conduit/internal/delivery/api/response"
	deliverycontext "conduit/internal/delivery/context"
	"conduit/internal/domain/lifecycle"
	"conduit/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// HealthHandlerParams holds dependencies for HealthHandler, injected by Fx.
type HealthHandlerParams struct {
	fx.In

	Engine service.WorkflowEngine
	Logger *slog.Logger
}

// HealthHandler reports liveness and whether n8n is reachable.
type HealthHandler struct {
	engine service.WorkflowEngine
	logger *slog.Logger
}

// NewHealthHandler is the constructor for HealthHandler
func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	return &HealthHandler{engine: params.Engine, logger: params.Logger}
}

// Live handles GET /health
func (h *HealthHandler) Live(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), lifecycle.DefaultTimeout)
	defer cancel()

	if err := h.engine.HealthCheck(ctx); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("n8n health check failed", slog.Any("error", err))

		return response.Error(c, http.StatusServiceUnavailable, "ENGINE_UNAVAILABLE", "Workflow engine is unreachable", nil)
	}

	return response.Success(c, http.StatusOK, map[string]string{"status": "ok", "n8n": "ok"})
}
