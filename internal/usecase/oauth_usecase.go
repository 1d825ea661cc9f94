package usecase

import (
	"context"

	"conduit/internal/domain/entity"
	"conduit/internal/domain/service"

	"github.com/google/uuid"
)

// CallbackInput carries the query parameters of a provider redirect.
type CallbackInput struct {
	Code  string
	State string
	Error string // Set by the provider when the user denied consent.
}

// CallbackResult tells the caller where to send the browser.
type CallbackResult struct {
	RedirectURL  string
	CredentialID uuid.UUID
	Provider     entity.Provider

	// Sync is the detached mirror sync, nil when no credential was stored.
	Sync service.DetachedTask
}

// OAuthUsecase drives the connect flow for OAuth apps.
type OAuthUsecase interface {
	// BeginAuthorization returns the provider consent URL bound to a fresh state.
	// An empty returnURL selects the frontend credentials page.
	BeginAuthorization(ctx context.Context, userID uuid.UUID, provider entity.Provider, returnURL string) (string, error)

	// HandleCallback validates state, exchanges the code and upserts the credential.
	// Once the request is well formed a result with a redirect URL is always
	// returned, pointing at the failure page when err is non-nil.
	HandleCallback(ctx context.Context, provider entity.Provider, input CallbackInput) (*CallbackResult, error)
}
