package handler

import (
	"log/slog"

	"conduit/internal/delivery/api/middleware"
	"conduit/internal/delivery/api/response"
	"conduit/internal/domain/entity"
	"conduit/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// OAuthHandlerParams holds dependencies for OAuthHandler, injected by Fx.
type OAuthHandlerParams struct {
	fx.In

	OAuthUC usecase.OAuthUsecase
	Logger  *slog.Logger
}

// OAuthHandler serves the provider connect flow.
type OAuthHandler struct {
	oauthUC usecase.OAuthUsecase
	logger  *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler
func NewOAuthHandler(params OAuthHandlerParams) *OAuthHandler {
	return &OAuthHandler{
		oauthUC: params.OAuthUC,
		logger:  params.Logger,
	}
}

// Authorize handles GET /oauth/:provider/authorize and redirects to the consent screen.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	provider := entity.Provider(c.Param("provider"))
	authURL, err := h.oauthUC.BeginAuthorization(c.Request().Context(), userID, provider, c.QueryParam("returnUrl"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Redirect(c, authURL)
}

// Callback handles GET /oauth/:provider/callback. It is public: the caller is
// identified by the state parameter.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider := entity.Provider(c.Param("provider"))
	result, err := h.oauthUC.HandleCallback(c.Request().Context(), provider, usecase.CallbackInput{
		Code:  c.QueryParam("code"),
		State: c.QueryParam("state"),
		Error: c.QueryParam("error"),
	})
	if result == nil {
		return response.HandleAppError(c, err)
	}

	return response.Redirect(c, result.RedirectURL)
}
