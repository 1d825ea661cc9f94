package impl

import (
	"context"
	"log/slog"

	"conduit/config"
	deliverycontext "conduit/internal/delivery/context"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/repository"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
	"conduit/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// MirrorServiceParams holds dependencies for mirrorService, injected by Fx.
type MirrorServiceParams struct {
	fx.In

	Config   *config.Config
	CredRepo repository.CredentialRepository
	UserRepo repository.UserRepository
	Cipher   service.Cipher
	Engine   service.WorkflowEngine
	Logger   *slog.Logger
}

// mirrorService implements the CredentialMirror interface.
type mirrorService struct {
	oauthCfg config.OAuthConfig
	credRepo repository.CredentialRepository
	userRepo repository.UserRepository
	cipher   service.Cipher
	engine   service.WorkflowEngine
	logger   *slog.Logger
}

// NewMirrorService is the constructor for mirrorService.
func NewMirrorService(params MirrorServiceParams) usecase.CredentialMirror {
	return &mirrorService{
		oauthCfg: params.Config.OAuth,
		credRepo: params.CredRepo,
		userRepo: params.UserRepo,
		cipher:   params.Cipher,
		engine:   params.Engine,
		logger:   params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *mirrorService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Sync formats the payload first, so a credential that cannot be shaped never
// loses its existing remote copy.
func (srv *mirrorService) Sync(ctx context.Context, id uuid.UUID) (string, error) {
	cred, err := srv.credRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return "", errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
		}

		return "", errors.Wrap(err, "failed to find credential")
	}
	if cred.App == nil {
		return "", errors.Wrap(domainerrors.ErrSync, "credential app not loaded")
	}

	logger := srv.log(ctx).With(
		slog.String("credential_id", id.String()),
		slog.String("app", cred.App.Slug),
	)

	user, err := srv.userRepo.FindByID(ctx, cred.UserID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return "", errors.Wrap(err, "failed to find credential owner")
	}

	secret, err := decryptSecret(srv.cipher, cred)
	if err != nil {
		return "", err
	}

	remote, err := buildRemoteCredential(cred.App, user, secret, srv.oauthCfg)
	if err != nil {
		logger.Error("Failed to format credential for n8n", slog.Any("error", err))

		return "", err
	}

	if cred.N8nCredentialID != nil {
		if err := srv.engine.DeleteCredential(ctx, *cred.N8nCredentialID); err != nil {
			logger.Warn("Failed to delete old n8n credential, continuing",
				slog.String("n8n_credential_id", *cred.N8nCredentialID),
				slog.Any("error", err),
			)
		}
	}

	remoteID, err := srv.engine.CreateCredential(ctx, remote)
	if err != nil {
		logger.Error("Failed to sync credential to n8n", slog.Any("error", err))

		return "", errors.Wrap(domainerrors.ErrSync, err.Error())
	}

	if err := srv.credRepo.SetN8nCredentialID(ctx, id, &remoteID); err != nil {
		return "", errors.Wrap(domainerrors.ErrSync, "failed to record n8n credential id: "+err.Error())
	}

	logger.Info("Synced credential to n8n", slog.String("n8n_credential_id", remoteID))

	return remoteID, nil
}

func (srv *mirrorService) Remove(ctx context.Context, id uuid.UUID) {
	logger := srv.log(ctx).With(slog.String("credential_id", id.String()))

	cred, err := srv.credRepo.FindByID(ctx, id)
	if err != nil {
		logger.Warn("No n8n credential to remove", slog.Any("error", err))

		return
	}
	if cred.N8nCredentialID == nil {
		logger.Debug("No n8n credential to remove")

		return
	}

	if err := srv.engine.DeleteCredential(ctx, *cred.N8nCredentialID); err != nil {
		logger.Error("Failed to remove credential from n8n",
			slog.String("n8n_credential_id", *cred.N8nCredentialID),
			slog.Any("error", err),
		)

		return
	}

	logger.Info("Removed credential from n8n", slog.String("n8n_credential_id", *cred.N8nCredentialID))
}

func (srv *mirrorService) Resync(ctx context.Context, id uuid.UUID) error {
	if _, err := srv.Sync(ctx, id); err != nil {
		return err
	}

	srv.log(ctx).Info("Resynced credential to n8n", slog.String("credential_id", id.String()))

	return nil
}

// SyncAll keeps going past individual failures.
func (srv *mirrorService) SyncAll(ctx context.Context, userID uuid.UUID) (int, error) {
	creds, err := srv.credRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list credentials")
	}

	synced := 0
	for _, cred := range creds {
		if _, err := srv.Sync(ctx, cred.ID); err != nil {
			srv.log(ctx).Error("Failed to sync credential during bulk sync",
				slog.String("credential_id", cred.ID.String()),
				slog.Any("error", err),
			)

			continue
		}
		synced++
	}

	srv.log(ctx).Info("Synced user credentials to n8n",
		slog.String("user_id", userID.String()),
		slog.Int("synced", synced),
		slog.Int("total", len(creds)),
	)

	return synced, nil
}

