package impl

import (
	"context"
	"net/url"
	"testing"
	"time"

	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
	"conduit/internal/infra/background"
	"conduit/internal/infra/oauth"
	"conduit/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type oauthFixtures struct {
	store      *store
	cipher     service.Cipher
	engine     *mockWorkflowEngine
	stateCodec service.OAuthStateCodec
	service    usecase.OAuthUsecase
	refresher  usecase.TokenRefreshUsecase
}

func createTestOAuthService(t *testing.T) oauthFixtures {
	t.Helper()
	s := newStore()
	c := newTestCipher(t)
	engine := newMockWorkflowEngine(t)
	providers := fakeProviders{
		entity.ProviderGoogle: &fakeOAuthProvider{
			provider: entity.ProviderGoogle,
			exchanges: map[string]*entity.OAuthTokens{
				"google-code": {AccessToken: "A", RefreshToken: "R", ExpiresIn: 3600, Scope: "email profile"},
				"reauth-code": {AccessToken: "A2", ExpiresIn: 3600, Scope: "email profile openid"},
			},
			identity: &entity.OAuthIdentity{Email: "ada@example.com", Name: "Ada", Picture: "https://example.com/ada.png"},
		},
		entity.ProviderSlack: &fakeOAuthProvider{
			provider: entity.ProviderSlack,
			exchanges: map[string]*entity.OAuthTokens{
				"slack-code": {
					AccessToken: "xoxb-1",
					Scope:       "chat:write,channels:read",
					Extra:       map[string]any{"teamId": "T123", "teamName": "Acme", "botUserId": "U0BOT", "appId": "A0APP"},
				},
			},
		},
	}

	mirror := NewMirrorService(MirrorServiceParams{
		Config:   newTestConfig(),
		CredRepo: &fakeCredentialRepo{s: s},
		UserRepo: &fakeUserRepo{s: s},
		Cipher:   c,
		Engine:   engine,
		Logger:   newDiscardLogger(),
	})
	codec := oauth.NewStateCodec()

	srv := NewOAuthService(OAuthServiceParams{
		Config:     newTestConfig(),
		TxManager:  &fakeTxManager{s: s},
		AppRepo:    &fakeAppRepo{s: s},
		Providers:  providers,
		StateCodec: codec,
		Cipher:     c,
		Mirror:     mirror,
		Runner:     background.New(newDiscardLogger()),
		Logger:     newDiscardLogger(),
	})

	refresher := NewTokenRefreshService(TokenRefreshServiceParams{
		CredRepo:  &fakeCredentialRepo{s: s},
		Providers: providers,
		Cipher:    c,
		Mirror:    mirror,
		Logger:    newDiscardLogger(),
	})

	return oauthFixtures{store: s, cipher: c, engine: engine, stateCodec: codec, service: srv, refresher: refresher}
}

func (fx oauthFixtures) state(t *testing.T, userID uuid.UUID, provider entity.Provider, issuedAt time.Time, returnURL string) string {
	t.Helper()
	state, err := fx.stateCodec.Encode(entity.OAuthState{UserID: userID, Provider: provider, IssuedAt: issuedAt, ReturnURL: returnURL})
	require.NoError(t, err)

	return state
}

func waitTask(t *testing.T, task service.DetachedTask) {
	t.Helper()
	require.NotNil(t, task)
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("detached sync did not finish")
	}
}

func TestOAuthService_BeginAuthorization(t *testing.T) {
	fx := createTestOAuthService(t)
	userID := uuid.New()

	authURL, err := fx.service.BeginAuthorization(context.Background(), userID, entity.ProviderGoogle, "https://app.example.com/done")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state, err := fx.stateCodec.Decode(parsed.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, userID, state.UserID)
	assert.Equal(t, entity.ProviderGoogle, state.Provider)
	assert.Equal(t, "https://app.example.com/done", state.ReturnURL)

	_, err = fx.service.BeginAuthorization(context.Background(), userID, entity.ProviderOpenAI, "")
	assert.True(t, errors.Is(err, domainerrors.ErrUnknownProvider))
}

func TestOAuthService_HandleCallback_GoogleConnect(t *testing.T) {
	fx := createTestOAuthService(t)
	ctx := context.Background()
	userID := fx.store.addUser("Ada")

	fx.engine.On("CreateCredential", mock.Anything, mock.MatchedBy(func(rc service.RemoteCredential) bool {
		return rc.Type == "googleOAuth2Api" && rc.Name == "Ada - Google"
	})).Return("n8n-google", nil).Once()

	before := time.Now()
	result, err := fx.service.HandleCallback(ctx, entity.ProviderGoogle, usecase.CallbackInput{
		Code:  "google-code",
		State: fx.state(t, userID, entity.ProviderGoogle, time.Now(), ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/credentials?provider=google&success=true", result.RedirectURL)
	waitTask(t, result.Sync)
	require.NoError(t, result.Sync.Err())

	cred := fx.store.row(result.CredentialID)
	require.NotNil(t, cred)
	assert.Equal(t, userID, cred.UserID)
	assert.Equal(t, []string{"email", "profile"}, cred.OAuthScopes)
	require.NotNil(t, cred.OAuthExpiresAt)
	assert.WithinDuration(t, before.Add(time.Hour), *cred.OAuthExpiresAt, 5*time.Second)
	assert.True(t, cred.IsValid)
	assert.Equal(t, "n8n-google", *cred.N8nCredentialID)

	metadata, err := fx.cipher.DecryptJSON(cred.Payload)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", metadata["email"])

	token, err := fx.refresher.GetValidAccessToken(ctx, result.CredentialID)
	require.NoError(t, err)
	assert.Equal(t, "A", token)
}

func TestOAuthService_HandleCallback_ReauthorizationUpdatesRow(t *testing.T) {
	fx := createTestOAuthService(t)
	ctx := context.Background()
	userID := fx.store.addUser("Ada")

	fx.engine.On("CreateCredential", mock.Anything, mock.Anything).Return("n8n-1", nil).Once()
	fx.engine.On("DeleteCredential", mock.Anything, "n8n-1").Return(nil).Once()
	fx.engine.On("CreateCredential", mock.Anything, mock.Anything).Return("n8n-2", nil).Once()

	first, err := fx.service.HandleCallback(ctx, entity.ProviderGoogle, usecase.CallbackInput{
		Code:  "google-code",
		State: fx.state(t, userID, entity.ProviderGoogle, time.Now(), ""),
	})
	require.NoError(t, err)
	waitTask(t, first.Sync)

	second, err := fx.service.HandleCallback(ctx, entity.ProviderGoogle, usecase.CallbackInput{
		Code:  "reauth-code",
		State: fx.state(t, userID, entity.ProviderGoogle, time.Now(), ""),
	})
	require.NoError(t, err)
	waitTask(t, second.Sync)

	assert.Equal(t, first.CredentialID, second.CredentialID)
	assert.Equal(t, 1, fx.store.count())

	cred := fx.store.row(second.CredentialID)
	assert.Equal(t, []string{"email", "profile", "openid"}, cred.OAuthScopes)
	refresh, err := fx.cipher.Decrypt(*cred.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "R", refresh)
	access, err := fx.cipher.Decrypt(*cred.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A2", access)
}

func TestOAuthService_HandleCallback_SlackConnect(t *testing.T) {
	fx := createTestOAuthService(t)
	ctx := context.Background()
	userID := fx.store.addUser("Ada")

	fx.engine.On("CreateCredential", mock.Anything, mock.Anything).Return("n8n-slack", nil).Once()

	result, err := fx.service.HandleCallback(ctx, entity.ProviderSlack, usecase.CallbackInput{
		Code:  "slack-code",
		State: fx.state(t, userID, entity.ProviderSlack, time.Now(), "https://app.example.com/setup?step=2"),
	})
	require.NoError(t, err)
	waitTask(t, result.Sync)

	assert.Equal(t, "https://app.example.com/setup?provider=slack&step=2&success=true", result.RedirectURL)

	cred := fx.store.row(result.CredentialID)
	assert.Equal(t, []string{"chat:write", "channels:read"}, cred.OAuthScopes)
	assert.Nil(t, cred.OAuthExpiresAt)
	assert.Nil(t, cred.RefreshToken)

	metadata, err := fx.cipher.DecryptJSON(cred.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"teamId": "T123", "teamName": "Acme", "botUserId": "U0BOT", "appId": "A0APP"}, metadata)
}

func TestOAuthService_HandleCallback_Failures(t *testing.T) {
	failurePage := "http://localhost:3000/credentials?error=" + url.QueryEscape(OAuthFailedMessage)
	userID := uuid.New()

	tests := []struct {
		name     string
		provider entity.Provider
		input    func(t *testing.T, fx oauthFixtures) usecase.CallbackInput
		wantErr  error
	}{
		{
			name:     "expired state",
			provider: entity.ProviderGoogle,
			input: func(t *testing.T, fx oauthFixtures) usecase.CallbackInput {
				return usecase.CallbackInput{Code: "google-code", State: fx.state(t, userID, entity.ProviderGoogle, time.Now().Add(-16*time.Minute), "")}
			},
			wantErr: domainerrors.ErrExpiredState,
		},
		{
			name:     "garbage state",
			provider: entity.ProviderGoogle,
			input: func(*testing.T, oauthFixtures) usecase.CallbackInput {
				return usecase.CallbackInput{Code: "google-code", State: "not-a-state!"}
			},
			wantErr: domainerrors.ErrInvalidState,
		},
		{
			name:     "state for another provider",
			provider: entity.ProviderGoogle,
			input: func(t *testing.T, fx oauthFixtures) usecase.CallbackInput {
				return usecase.CallbackInput{Code: "google-code", State: fx.state(t, userID, entity.ProviderSlack, time.Now(), "")}
			},
			wantErr: domainerrors.ErrInvalidState,
		},
		{
			name:     "code exchange rejected",
			provider: entity.ProviderGoogle,
			input: func(t *testing.T, fx oauthFixtures) usecase.CallbackInput {
				return usecase.CallbackInput{Code: "bad-code", State: fx.state(t, userID, entity.ProviderGoogle, time.Now(), "")}
			},
			wantErr: domainerrors.ErrTokenExchange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestOAuthService(t)

			result, err := fx.service.HandleCallback(context.Background(), tt.provider, tt.input(t, fx))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			require.NotNil(t, result)
			assert.Equal(t, failurePage, result.RedirectURL)
			assert.Nil(t, result.Sync)
			assert.Zero(t, fx.store.count())
		})
	}
}

func TestOAuthService_HandleCallback_ProviderErrorAndMissingParams(t *testing.T) {
	fx := createTestOAuthService(t)
	ctx := context.Background()

	result, err := fx.service.HandleCallback(ctx, entity.ProviderGoogle, usecase.CallbackInput{Error: "access_denied"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/credentials?error=access_denied", result.RedirectURL)

	result, err = fx.service.HandleCallback(ctx, entity.ProviderGoogle, usecase.CallbackInput{Code: "google-code"})
	require.Error(t, err)
	assert.Nil(t, result)
	appErr, ok := errors.AsType[domainerrors.AppError](err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode())
}
