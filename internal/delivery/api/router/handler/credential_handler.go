// Package handler holds the echo handlers of the credential API.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"conduit/internal/delivery/api/middleware"
	"conduit/internal/delivery/api/response"
	"conduit/internal/domain/entity"
	"conduit/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CredentialHandlerParams holds dependencies for CredentialHandler, injected by Fx.
type CredentialHandlerParams struct {
	fx.In

	CredentialUC usecase.CredentialUsecase
	RefreshUC    usecase.TokenRefreshUsecase
	MirrorUC     usecase.CredentialMirror
	Logger       *slog.Logger
}

// CredentialHandler serves the /credentials routes.
type CredentialHandler struct {
	credentialUC usecase.CredentialUsecase
	refreshUC    usecase.TokenRefreshUsecase
	mirrorUC     usecase.CredentialMirror
	logger       *slog.Logger
}

// NewCredentialHandler is the constructor for CredentialHandler
func NewCredentialHandler(params CredentialHandlerParams) *CredentialHandler {
	return &CredentialHandler{
		credentialUC: params.CredentialUC,
		refreshUC:    params.RefreshUC,
		mirrorUC:     params.MirrorUC,
		logger:       params.Logger,
	}
}

// CreateCredentialRequest is the body of POST /credentials.
type CreateCredentialRequest struct {
	AppSlug string `json:"appSlug" validate:"required,max=64"`
	APIKey  string `json:"apiKey" validate:"required,max=4096"`
	Name    string `json:"name" validate:"max=255"`
}

// AppResponse is the public view of an app.
type AppResponse struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	IconURL  *string   `json:"iconUrl"`
	AuthType string    `json:"authType"`
}

// CredentialResponse never carries secret material.
type CredentialResponse struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"userId"`
	App             *AppResponse `json:"app,omitempty"`
	IsValid         bool         `json:"isValid"`
	LastValidatedAt *time.Time   `json:"lastValidatedAt"`
	ValidationError *string      `json:"validationError"`
	OAuthExpiresAt  *time.Time   `json:"oauthExpiresAt,omitempty"`
	OAuthScopes     []string     `json:"oauthScopes,omitempty"`
	Synced          bool         `json:"synced"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func toCredentialResponse(cred *entity.Credential) CredentialResponse {
	resp := CredentialResponse{
		ID:              cred.ID,
		UserID:          cred.UserID,
		IsValid:         cred.IsValid,
		LastValidatedAt: cred.LastValidatedAt,
		ValidationError: cred.ValidationError,
		OAuthExpiresAt:  cred.OAuthExpiresAt,
		OAuthScopes:     cred.OAuthScopes,
		Synced:          cred.N8nCredentialID != nil,
		CreatedAt:       cred.CreatedAt,
		UpdatedAt:       cred.UpdatedAt,
	}
	if cred.App != nil {
		resp.App = &AppResponse{
			ID:       cred.App.ID,
			Slug:     cred.App.Slug,
			Name:     cred.App.Name,
			AuthType: cred.App.AuthType.String(),
		}
		if cred.App.IconURL != "" {
			resp.App.IconURL = &cred.App.IconURL
		}
	}

	return resp
}

// ListCredentials handles GET /credentials
func (h *CredentialHandler) ListCredentials(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	creds, err := h.credentialUC.ListCredentials(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	out := make([]CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		out = append(out, toCredentialResponse(cred))
	}

	return response.Success(c, http.StatusOK, out)
}

// CreateCredential handles POST /credentials for API key apps
func (h *CredentialHandler) CreateCredential(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req CreateCredentialRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid credential input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_ERROR", "Invalid credential input", err.Error())
	}

	cred, err := h.credentialUC.CreateAPIKeyCredential(c.Request().Context(), &usecase.CreateAPIKeyInput{
		UserID:  userID,
		AppSlug: req.AppSlug,
		APIKey:  req.APIKey,
		Name:    req.Name,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, toCredentialResponse(cred))
}

// GetCredential handles GET /credentials/:id
func (h *CredentialHandler) GetCredential(c echo.Context) error {
	userID, credID, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp()
	}

	cred, err := h.credentialUC.GetCredential(c.Request().Context(), credID, userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toCredentialResponse(cred))
}

// DeleteCredential handles DELETE /credentials/:id
func (h *CredentialHandler) DeleteCredential(c echo.Context) error {
	userID, credID, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp()
	}

	if err := h.credentialUC.DeleteCredential(c.Request().Context(), credID, userID); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{"deleted": true})
}

// TestCredential handles POST /credentials/:id/test
func (h *CredentialHandler) TestCredential(c echo.Context) error {
	userID, credID, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp()
	}

	result, err := h.credentialUC.TestCredential(c.Request().Context(), credID, userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// RefreshCredential handles POST /credentials/:id/refresh
func (h *CredentialHandler) RefreshCredential(c echo.Context) error {
	userID, credID, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp()
	}

	ctx := c.Request().Context()
	if _, err := h.credentialUC.GetCredential(ctx, credID, userID); err != nil {
		return response.HandleAppError(c, err)
	}
	if err := h.refreshUC.RefreshCredential(ctx, credID); err != nil {
		return response.HandleAppError(c, err)
	}

	cred, err := h.credentialUC.GetCredential(ctx, credID, userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toCredentialResponse(cred))
}

// RefreshExpiring handles POST /credentials/refresh
func (h *CredentialHandler) RefreshExpiring(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	refreshed, err := h.refreshUC.RefreshExpiringForUser(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"refreshed": refreshed})
}

// SyncCredentials handles POST /credentials/sync
func (h *CredentialHandler) SyncCredentials(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	synced, err := h.mirrorUC.SyncAll(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"synced": synced})
}

// ownerAndID reads the caller and the :id path parameter. The returned func
// writes the error response when either is missing.
func (h *CredentialHandler) ownerAndID(c echo.Context) (uuid.UUID, uuid.UUID, func() error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, func() error {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
		}
	}

	credID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, func() error {
			return response.BadRequest(c, "INVALID_ID", "Invalid credential ID")
		}
	}

	return userID, credID, nil
}
