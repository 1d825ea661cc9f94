package service

import (
	"context"

	"conduit/internal/domain/entity"
)

// OAuthProvider is the capability set of one OAuth provider.
type OAuthProvider interface {
	Provider() entity.Provider

	// AuthorizationURL returns the consent screen URL. An empty scopes slice
	// selects the configured defaults.
	AuthorizationURL(state string, scopes []string) (string, error)

	ExchangeCode(ctx context.Context, code string) (*entity.OAuthTokens, error)

	// Refresh returns domainerrors.ErrRefreshNotSupported for providers
	// whose tokens do not expire.
	Refresh(ctx context.Context, refreshToken string) (*entity.OAuthTokens, error)

	// WhoAmI returns domainerrors.ErrProviderUnauthorized when the provider rejects the token.
	WhoAmI(ctx context.Context, accessToken string) (*entity.OAuthIdentity, error)
}

// OAuthProviders resolves providers registered at startup.
type OAuthProviders interface {
	// Get returns domainerrors.ErrUnknownProvider for providers without an OAuth flow.
	Get(provider entity.Provider) (OAuthProvider, error)
}

// OAuthStateCodec encodes and checks the state round-tripped through the provider redirect.
type OAuthStateCodec interface {
	Encode(state entity.OAuthState) (string, error)

	// Decode returns domainerrors.ErrInvalidState for undecodable input and
	// domainerrors.ErrExpiredState for state issued too long ago.
	Decode(raw string) (*entity.OAuthState, error)
}
