package impl

import (
	"context"
	"log/slog"
	"strings"
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

const noValidatorMessage = "no validator for provider"

// credentialService implements the CredentialUsecase interface.
type credentialService struct {
	txManager repository.TransactionManager
	appRepo   repository.AppRepository
	credRepo  repository.CredentialRepository
	cipher    service.Cipher
	validator service.CredentialValidator
	mirror    usecase.CredentialMirror
	runner    service.BackgroundRunner
	logger    *slog.Logger
	now       func() time.Time
}

// CredentialServiceParams holds dependencies for CredentialService, injected by Fx.
type CredentialServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	AppRepo   repository.AppRepository
	CredRepo  repository.CredentialRepository
	Cipher    service.Cipher
	Validator service.CredentialValidator
	Mirror    usecase.CredentialMirror
	Runner    service.BackgroundRunner
	Logger    *slog.Logger
}

// NewCredentialService is the constructor for credentialService.
func NewCredentialService(params CredentialServiceParams) usecase.CredentialUsecase {
	return &credentialService{
		txManager: params.TxManager,
		appRepo:   params.AppRepo,
		credRepo:  params.CredRepo,
		cipher:    params.Cipher,
		validator: params.Validator,
		mirror:    params.Mirror,
		runner:    params.Runner,
		logger:    params.Logger,
		now:       nowUTC,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *credentialService) ListCredentials(ctx context.Context, userID uuid.UUID) ([]*entity.Credential, error) {
	creds, err := srv.credRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list credentials")
	}

	return creds, nil
}

func (srv *credentialService) GetCredential(ctx context.Context, id, userID uuid.UUID) (*entity.Credential, error) {
	cred, err := srv.credRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
		}

		return nil, errors.Wrap(err, "failed to find credential")
	}

	// Foreign rows look exactly like missing ones.
	if cred.UserID != userID {
		return nil, errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
	}

	return cred, nil
}

func (srv *credentialService) CreateAPIKeyCredential(ctx context.Context, input *usecase.CreateAPIKeyInput) (*entity.Credential, error) {
	apiKey := strings.TrimSpace(input.APIKey)
	if apiKey == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("apiKey is required")
	}

	app, err := srv.appRepo.FindBySlug(ctx, input.AppSlug)
	if err != nil {
		if errors.Is(err, repository.ErrAppNotFound) {
			return nil, errors.Wrapf(domainerrors.ErrAppNotFound, "app %q", input.AppSlug)
		}

		return nil, errors.Wrap(err, "failed to find app")
	}
	if app.AuthType != entity.AuthTypeAPIKey {
		return nil, errors.Wrapf(domainerrors.ErrUnsupportedAuthType, "app %q is connected through %s", app.Slug, app.AuthType)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = app.Name + " API Key"
	}

	payload, err := srv.cipher.EncryptJSON(map[string]any{
		"apiKey": apiKey,
		"name":   name,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt api key")
	}

	cred := &entity.Credential{
		UserID:  input.UserID,
		AppID:   app.ID,
		Payload: payload,
		IsValid: true,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		credRepo := repoFactory.CredentialRepo()

		_, findErr := credRepo.FindByUserAndApp(ctx, input.UserID, app.ID)
		if findErr == nil {
			return errors.Wrapf(domainerrors.ErrDuplicateCredential, "app %q", app.Slug)
		}
		if !errors.Is(findErr, repository.ErrCredentialNotFound) {
			return errors.Wrap(findErr, "failed to check existing credential")
		}

		if createErr := credRepo.Create(ctx, cred); createErr != nil {
			if errors.Is(createErr, repository.ErrDuplicateCredential) {
				return errors.Wrapf(domainerrors.ErrDuplicateCredential, "app %q", app.Slug)
			}

			return errors.Wrap(createErr, "failed to create credential")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	cred.App = app

	srv.log(ctx).Info("Created API key credential",
		slog.String("credential_id", cred.ID.String()),
		slog.String("app", app.Slug),
	)

	credID := cred.ID
	srv.runner.Detach(ctx, "n8n credential sync", func(ctx context.Context) error {
		_, err := srv.mirror.Sync(ctx, credID)

		return err
	})

	return cred, nil
}

func (srv *credentialService) DeleteCredential(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := srv.GetCredential(ctx, id, userID); err != nil {
		return err
	}

	srv.mirror.Remove(ctx, id)

	if err := srv.credRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
		}

		return errors.Wrap(err, "failed to delete credential")
	}

	srv.log(ctx).Info("Deleted credential", slog.String("credential_id", id.String()))

	return nil
}

func (srv *credentialService) TestCredential(ctx context.Context, id, userID uuid.UUID) (*entity.ValidationResult, error) {
	cred, err := srv.GetCredential(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	slug := cred.App.Slug
	if !srv.validator.HasValidator(slug) {
		return &entity.ValidationResult{IsValid: false, Message: noValidatorMessage}, nil
	}

	secret, err := decryptSecret(srv.cipher, cred)
	if err != nil {
		return nil, err
	}

	result := srv.validator.Validate(ctx, slug, secret)

	var reason *string
	if !result.IsValid {
		reason = ptr(result.Message)
	}
	if err := srv.credRepo.UpdateStatus(ctx, id, result.IsValid, reason, srv.now()); err != nil {
		return nil, errors.Wrap(err, "failed to record validation result")
	}

	srv.log(ctx).Info("Tested credential",
		slog.String("credential_id", id.String()),
		slog.String("app", slug),
		slog.Bool("is_valid", result.IsValid),
	)

	return &result, nil
}

func (srv *credentialService) GetDecryptedSecret(ctx context.Context, id uuid.UUID) (*string, error) {
	cred, err := srv.credRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
		}

		return nil, errors.Wrap(err, "failed to find credential")
	}

	secret, err := decryptSecret(srv.cipher, cred)
	if err != nil {
		return nil, err
	}

	switch s := secret.(type) {
	case entity.OAuthSecret:
		if s.AccessToken == "" {
			return nil, nil
		}

		return &s.AccessToken, nil
	case entity.APIKeySecret:
		return &s.Key, nil
	default:
		return nil, errors.Errorf("unsupported secret %T", secret)
	}
}

func (srv *credentialService) MarkValid(ctx context.Context, id uuid.UUID) error {
	return srv.updateStatus(ctx, id, true, nil)
}

func (srv *credentialService) MarkInvalid(ctx context.Context, id uuid.UUID, reason string) error {
	return srv.updateStatus(ctx, id, false, &reason)
}

func (srv *credentialService) updateStatus(ctx context.Context, id uuid.UUID, isValid bool, reason *string) error {
	if err := srv.credRepo.UpdateStatus(ctx, id, isValid, reason, srv.now()); err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return errors.Wrap(domainerrors.ErrCredentialNotFound, "credential not found")
		}

		return errors.Wrap(err, "failed to update credential status")
	}

	return nil
}
