package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// LazyRefreshWindow is used when a token is read.
	LazyRefreshWindow = 5 * time.Minute

	// BatchRefreshWindow is used by the periodic sweep, so tokens are renewed before any reader needs them.
	BatchRefreshWindow = 10 * time.Minute

	// ReconnectMessage is recorded on a credential whose refresh failed.
	ReconnectMessage = "Failed to refresh access token. Please reconnect your account."
)

// IsExpiringSoon reports whether expiresAt falls within window of now.
// A nil expiry never expires.
func IsExpiringSoon(expiresAt *time.Time, now time.Time, window time.Duration) bool {
	if expiresAt == nil {
		return false
	}

	return !expiresAt.After(now.Add(window))
}

// TokenRefreshUsecase renews OAuth access tokens.
type TokenRefreshUsecase interface {
	// RefreshCredential refreshes one credential. On provider failure the
	// credential is marked invalid and the error is returned.
	RefreshCredential(ctx context.Context, id uuid.UUID) error

	// RefreshExpiringForUser refreshes the user's tokens inside LazyRefreshWindow.
	RefreshExpiringForUser(ctx context.Context, userID uuid.UUID) (int, error)

	// RefreshAllExpiring refreshes every token inside BatchRefreshWindow that has a refresh token.
	RefreshAllExpiring(ctx context.Context) (int, error)

	// GetValidAccessToken returns the decrypted access token, refreshing first when it is about to expire.
	GetValidAccessToken(ctx context.Context, id uuid.UUID) (string, error)
}
