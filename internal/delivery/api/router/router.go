// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"conduit/internal/delivery/api/middleware"
	"conduit/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	CredentialHandler *handler.CredentialHandler
	OAuthHandler      *handler.OAuthHandler
	HealthHandler     *handler.HealthHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	credentialHandler *handler.CredentialHandler
	oauthHandler      *handler.OAuthHandler
	healthHandler     *handler.HealthHandler
	authMiddleware    *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		credentialHandler: params.CredentialHandler,
		oauthHandler:      params.OAuthHandler,
		healthHandler:     params.HealthHandler,
		authMiddleware:    params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.healthHandler.Live)
	e.GET("/health/ready", r.healthHandler.Ready)

	// Provider redirects carry no bearer token; the state parameter identifies the user.
	e.GET("/oauth/:provider/callback", r.oauthHandler.Callback)

	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate)

	credentialsGroup := apiV1.Group("/credentials")
	{
		credentialsGroup.GET("", r.credentialHandler.ListCredentials)
		credentialsGroup.POST("", r.credentialHandler.CreateCredential)
		credentialsGroup.POST("/sync", r.credentialHandler.SyncCredentials)
		credentialsGroup.POST("/refresh", r.credentialHandler.RefreshExpiring)
		credentialsGroup.GET("/:id", r.credentialHandler.GetCredential)
		credentialsGroup.DELETE("/:id", r.credentialHandler.DeleteCredential)
		credentialsGroup.POST("/:id/test", r.credentialHandler.TestCredential)
		credentialsGroup.POST("/:id/refresh", r.credentialHandler.RefreshCredential)
	}

	oauthGroup := apiV1.Group("/oauth")
	{
		oauthGroup.GET("/:provider/authorize", r.oauthHandler.Authorize)
	}
}
