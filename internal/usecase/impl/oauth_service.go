package impl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"conduit/config"
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

// OAuthFailedMessage is shown on the credentials page after any failed callback.
const OAuthFailedMessage = "OAuth failed. Please try again."

// scopeSeparators is how each provider joins granted scopes in its token response.
var scopeSeparators = map[entity.Provider]string{
	entity.ProviderGoogle: " ",
	entity.ProviderSlack:  ",",
}

// oauthService implements the OAuthUsecase interface.
type oauthService struct {
	frontendURL string
	txManager   repository.TransactionManager
	appRepo     repository.AppRepository
	providers   service.OAuthProviders
	stateCodec  service.OAuthStateCodec
	cipher      service.Cipher
	mirror      usecase.CredentialMirror
	runner      service.BackgroundRunner
	logger      *slog.Logger
	now         func() time.Time
}

// OAuthServiceParams holds dependencies for OAuthService, injected by Fx.
type OAuthServiceParams struct {
	fx.In

	Config     *config.Config
	TxManager  repository.TransactionManager
	AppRepo    repository.AppRepository
	Providers  service.OAuthProviders
	StateCodec service.OAuthStateCodec
	Cipher     service.Cipher
	Mirror     usecase.CredentialMirror
	Runner     service.BackgroundRunner
	Logger     *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(params OAuthServiceParams) usecase.OAuthUsecase {
	return &oauthService{
		frontendURL: strings.TrimRight(params.Config.FrontendURL, "/"),
		txManager:   params.TxManager,
		appRepo:     params.AppRepo,
		providers:   params.Providers,
		stateCodec:  params.StateCodec,
		cipher:      params.Cipher,
		mirror:      params.Mirror,
		runner:      params.Runner,
		logger:      params.Logger,
		now:         nowUTC,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *oauthService) BeginAuthorization(ctx context.Context, userID uuid.UUID, provider entity.Provider, returnURL string) (string, error) {
	adapter, err := srv.providers.Get(provider)
	if err != nil {
		return "", err
	}

	state, err := srv.stateCodec.Encode(entity.OAuthState{
		UserID:    userID,
		Provider:  provider,
		IssuedAt:  srv.now(),
		ReturnURL: returnURL,
	})
	if err != nil {
		return "", err
	}

	authURL, err := adapter.AuthorizationURL(state, nil)
	if err != nil {
		return "", err
	}

	srv.log(ctx).Info("Started OAuth authorization",
		slog.String("user_id", userID.String()),
		slog.String("provider", provider.String()),
	)

	return authURL, nil
}

func (srv *oauthService) HandleCallback(ctx context.Context, provider entity.Provider, input usecase.CallbackInput) (*usecase.CallbackResult, error) {
	logger := srv.log(ctx).With(slog.String("provider", provider.String()))

	if input.Error != "" {
		logger.Warn("Provider returned an OAuth error", slog.String("oauth_error", input.Error))

		return &usecase.CallbackResult{
			RedirectURL: srv.credentialsPage(url.Values{"error": {input.Error}}),
			Provider:    provider,
		}, nil
	}

	if input.Code == "" || input.State == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("missing code or state")
	}

	result, err := srv.completeCallback(ctx, provider, input)
	if err != nil {
		logger.Error("OAuth callback failed", slog.Any("error", err))

		return &usecase.CallbackResult{
			RedirectURL: srv.credentialsPage(url.Values{"error": {OAuthFailedMessage}}),
			Provider:    provider,
		}, err
	}

	return result, nil
}

func (srv *oauthService) completeCallback(ctx context.Context, provider entity.Provider, input usecase.CallbackInput) (*usecase.CallbackResult, error) {
	state, err := srv.stateCodec.Decode(input.State)
	if err != nil {
		return nil, err
	}
	if state.Provider != provider {
		return nil, domainerrors.ErrInvalidState.WrapMessage("state was issued for " + state.Provider.String())
	}

	adapter, err := srv.providers.Get(provider)
	if err != nil {
		return nil, err
	}

	tokens, err := adapter.ExchangeCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	app, err := srv.appRepo.FindBySlug(ctx, provider.String())
	if err != nil {
		if errors.Is(err, repository.ErrAppNotFound) {
			return nil, errors.Wrapf(domainerrors.ErrAppNotFound, "app %q", provider)
		}

		return nil, errors.Wrap(err, "failed to find app")
	}

	cred, err := srv.upsertCredential(ctx, state.UserID, app, tokens, srv.identityMetadata(ctx, adapter, tokens))
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Connected OAuth credential",
		slog.String("credential_id", cred.ID.String()),
		slog.String("user_id", state.UserID.String()),
		slog.String("provider", provider.String()),
	)

	credID := cred.ID
	sync := srv.runner.Detach(ctx, "n8n credential sync", func(ctx context.Context) error {
		_, err := srv.mirror.Sync(ctx, credID)

		return err
	})

	return &usecase.CallbackResult{
		RedirectURL:  srv.successURL(state.ReturnURL, provider),
		CredentialID: cred.ID,
		Provider:     provider,
		Sync:         sync,
	}, nil
}

// identityMetadata captures who connected the account. Identity lookups are
// best effort; the tokens are stored either way.
func (srv *oauthService) identityMetadata(ctx context.Context, adapter service.OAuthProvider, tokens *entity.OAuthTokens) map[string]any {
	switch adapter.Provider() {
	case entity.ProviderGoogle:
		identity, err := adapter.WhoAmI(ctx, tokens.AccessToken)
		if err != nil {
			srv.log(ctx).Warn("Failed to fetch Google user info", slog.Any("error", err))

			return map[string]any{}
		}

		return map[string]any{
			"email":   identity.Email,
			"name":    identity.Name,
			"picture": identity.Picture,
		}
	case entity.ProviderSlack:
		metadata := map[string]any{}
		for _, key := range []string{"teamId", "teamName", "botUserId", "appId"} {
			if v, ok := tokens.Extra[key]; ok {
				metadata[key] = v
			}
		}

		return metadata
	default:
		return map[string]any{}
	}
}

// upsertCredential stores the tokens on the (user, app) row, creating it on first connect.
func (srv *oauthService) upsertCredential(ctx context.Context, userID uuid.UUID, app *entity.App, tokens *entity.OAuthTokens, metadata map[string]any) (*entity.Credential, error) {
	now := srv.now()
	provider, _ := app.Provider()

	payload, err := srv.cipher.EncryptJSON(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt credential metadata")
	}
	access, err := srv.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt access token")
	}
	refresh, err := encryptOptional(srv.cipher, tokens.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt refresh token")
	}

	var cred *entity.Credential
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		credRepo := repoFactory.CredentialRepo()

		existing, findErr := credRepo.FindByUserAndApp(ctx, userID, app.ID)
		switch {
		case findErr == nil:
			cred = existing
		case errors.Is(findErr, repository.ErrCredentialNotFound):
			cred = &entity.Credential{UserID: userID, AppID: app.ID}
		default:
			return errors.Wrap(findErr, "failed to find existing credential")
		}

		cred.Payload = payload
		cred.AccessToken = &access
		if refresh != nil {
			cred.RefreshToken = refresh
		}
		cred.OAuthExpiresAt = tokens.ExpiresAt(now)
		cred.OAuthScopes = splitScopes(tokens.Scope, scopeSeparators[provider])
		cred.MarkValid(now)

		if existing != nil {
			return credRepo.Update(ctx, cred)
		}

		return credRepo.Create(ctx, cred)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store oauth credential")
	}
	cred.App = app

	return cred, nil
}

func (srv *oauthService) credentialsPage(query url.Values) string {
	return srv.frontendURL + "/credentials?" + query.Encode()
}

func (srv *oauthService) successURL(returnURL string, provider entity.Provider) string {
	if returnURL == "" {
		returnURL = srv.frontendURL + "/credentials"
	}

	target, err := url.Parse(returnURL)
	if err != nil {
		return srv.credentialsPage(url.Values{"success": {"true"}, "provider": {provider.String()}})
	}

	query := target.Query()
	query.Set("success", "true")
	query.Set("provider", provider.String())
	target.RawQuery = query.Encode()

	return target.String()
}
