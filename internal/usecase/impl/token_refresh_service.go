package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "conduit/internal/delivery/context"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/repository"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
	"conduit/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// TokenRefreshServiceParams holds dependencies for tokenRefreshService, injected by Fx.
type TokenRefreshServiceParams struct {
	fx.In

	CredRepo  repository.CredentialRepository
	Providers service.OAuthProviders
	Cipher    service.Cipher
	Mirror    usecase.CredentialMirror
	Logger    *slog.Logger
}

// tokenRefreshService implements the TokenRefreshUsecase interface.
type tokenRefreshService struct {
	credRepo  repository.CredentialRepository
	providers service.OAuthProviders
	cipher    service.Cipher
	mirror    usecase.CredentialMirror
	logger    *slog.Logger
	now       func() time.Time
}

// NewTokenRefreshService is the constructor for tokenRefreshService.
func NewTokenRefreshService(params TokenRefreshServiceParams) usecase.TokenRefreshUsecase {
	return &tokenRefreshService{
		credRepo:  params.CredRepo,
		providers: params.Providers,
		cipher:    params.Cipher,
		mirror:    params.Mirror,
		logger:    params.Logger,
		now:       nowUTC,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *tokenRefreshService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *tokenRefreshService) RefreshCredential(ctx context.Context, id uuid.UUID) error {
	cred, err := srv.findCredential(ctx, id)
	if err != nil {
		return err
	}
	if cred.AuthType() != entity.AuthTypeOAuth2 {
		return domainerrors.ErrUnsupportedAuthType.WrapMessage("credential is not an OAuth credential")
	}

	logger := srv.log(ctx).With(
		slog.String("credential_id", id.String()),
		slog.String("app", cred.App.Slug),
	)

	provider, ok := cred.App.Provider()
	if !ok || !provider.SupportsOAuth() {
		logger.Warn("Token refresh not implemented for provider")

		return nil
	}
	if !provider.SupportsRefresh() {
		logger.Info("Provider tokens do not expire, skipping refresh")

		return nil
	}
	if !cred.HasRefreshToken() {
		return domainerrors.ErrTokenRefresh.WrapMessage("no refresh token available")
	}

	refreshToken, err := srv.cipher.Decrypt(*cred.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "refresh token")
	}

	adapter, err := srv.providers.Get(provider)
	if err != nil {
		return err
	}

	tokens, err := adapter.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domainerrors.ErrRefreshNotSupported) {
			logger.Info("Provider does not support token refresh")

			return nil
		}

		logger.Error("Failed to refresh access token", slog.Any("error", err))
		if markErr := srv.credRepo.UpdateStatus(ctx, id, false, ptr(usecase.ReconnectMessage), srv.now()); markErr != nil {
			logger.Error("Failed to mark credential invalid", slog.Any("error", markErr))
		}

		return errors.Wrap(err, "failed to refresh credential")
	}

	if err := srv.applyTokens(cred, tokens); err != nil {
		return err
	}
	if err := srv.credRepo.Update(ctx, cred); err != nil {
		return errors.Wrap(err, "failed to store refreshed tokens")
	}

	logger.Info("Refreshed access token", slog.Any("expires_at", cred.OAuthExpiresAt))

	// Rows whose first sync failed are mirrored here too.
	if err := srv.mirror.Resync(ctx, id); err != nil {
		logger.Error("Failed to resync refreshed credential to n8n", slog.Any("error", err))
	}

	return nil
}

// applyTokens re-encrypts the refreshed tokens onto cred. A response without a
// refresh token keeps the stored one.
func (srv *tokenRefreshService) applyTokens(cred *entity.Credential, tokens *entity.OAuthTokens) error {
	now := srv.now()

	access, err := srv.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt access token")
	}
	cred.AccessToken = &access

	if tokens.RefreshToken != "" {
		refresh, err := srv.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return errors.Wrap(err, "failed to encrypt refresh token")
		}
		cred.RefreshToken = &refresh
	}

	cred.OAuthExpiresAt = tokens.ExpiresAt(now)
	if scopes := splitScopes(tokens.Scope, " "); len(scopes) > 0 {
		cred.OAuthScopes = scopes
	}
	cred.MarkValid(now)

	return nil
}

func (srv *tokenRefreshService) RefreshExpiringForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	creds, err := srv.credRepo.ListOAuthWithExpiryByUser(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list oauth credentials")
	}

	now := srv.now()
	refreshed := 0
	for _, cred := range creds {
		if !usecase.IsExpiringSoon(cred.OAuthExpiresAt, now, usecase.LazyRefreshWindow) {
			continue
		}
		if err := srv.RefreshCredential(ctx, cred.ID); err != nil {
			srv.log(ctx).Error("Failed to refresh credential",
				slog.String("credential_id", cred.ID.String()),
				slog.Any("error", err),
			)

			continue
		}
		refreshed++
	}

	return refreshed, nil
}

func (srv *tokenRefreshService) RefreshAllExpiring(ctx context.Context) (int, error) {
	creds, err := srv.credRepo.ListRefreshable(ctx, srv.now().Add(usecase.BatchRefreshWindow))
	if err != nil {
		return 0, errors.Wrap(err, "failed to list refreshable credentials")
	}

	refreshed := 0
	for _, cred := range creds {
		if err := srv.RefreshCredential(ctx, cred.ID); err != nil {
			srv.log(ctx).Error("Failed to refresh credential during sweep",
				slog.String("credential_id", cred.ID.String()),
				slog.Any("error", err),
			)

			continue
		}
		refreshed++
	}

	srv.log(ctx).Info("Token refresh sweep finished",
		slog.Int("refreshed", refreshed),
		slog.Int("candidates", len(creds)),
	)

	return refreshed, nil
}

func (srv *tokenRefreshService) GetValidAccessToken(ctx context.Context, id uuid.UUID) (string, error) {
	cred, err := srv.findCredential(ctx, id)
	if err != nil {
		return "", err
	}

	if cred.AuthType() == entity.AuthTypeOAuth2 && usecase.IsExpiringSoon(cred.OAuthExpiresAt, srv.now(), usecase.LazyRefreshWindow) {
		if err := srv.RefreshCredential(ctx, id); err != nil {
			return "", err
		}
		if cred, err = srv.findCredential(ctx, id); err != nil {
			return "", err
		}
	}

	if !cred.HasAccessToken() {
		return "", errors.Wrap(domainerrors.ErrNoAccessToken, "credential has no access token")
	}

	token, err := srv.cipher.Decrypt(*cred.AccessToken)
	if err != nil {
		return "", errors.Wrap(err, "access token")
	}

	return token, nil
}

func (srv *tokenRefreshService) findCredential(ctx context.Context, id uuid.UUID) (*entity.Credential, error) {
	cred, err := srv.credRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
		}

		return nil, errors.Wrap(err, "failed to find credential")
	}

	return cred, nil
}
