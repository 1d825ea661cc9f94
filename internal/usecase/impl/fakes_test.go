package impl

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/repository"
	"conduit/internal/domain/service"
	"conduit/internal/infra/crypto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCipher(t *testing.T) service.Cipher {
	t.Helper()
	c, err := crypto.NewAESGCMCipher(testEncryptionKey)
	require.NoError(t, err)

	return c
}

func newTestConfig() *config.Config {
	cfg := &config.Config{FrontendURL: "http://localhost:3000"}
	cfg.OAuth.Google = config.OAuthClientConfig{ClientID: "google-client", ClientSecret: "google-secret"}

	return cfg
}

var (
	googleApp = &entity.App{ID: uuid.New(), Slug: "google", Name: "Google", AuthType: entity.AuthTypeOAuth2}
	slackApp  = &entity.App{ID: uuid.New(), Slug: "slack", Name: "Slack", AuthType: entity.AuthTypeOAuth2}
	openaiApp = &entity.App{ID: uuid.New(), Slug: "openai", Name: "OpenAI", AuthType: entity.AuthTypeAPIKey}
	githubApp = &entity.App{ID: uuid.New(), Slug: "github", Name: "GitHub", AuthType: entity.AuthTypeAPIKey}
)

// store is an in-memory stand-in for the credentials, apps and users tables.
type store struct {
	mu    sync.Mutex
	apps  []*entity.App
	users map[uuid.UUID]*entity.User
	creds map[uuid.UUID]*entity.Credential
}

func newStore(apps ...*entity.App) *store {
	if len(apps) == 0 {
		apps = []*entity.App{googleApp, slackApp, openaiApp, githubApp}
	}

	return &store{
		apps:  apps,
		users: map[uuid.UUID]*entity.User{},
		creds: map[uuid.UUID]*entity.Credential{},
	}
}

func (s *store) addUser(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = &entity.User{ID: id, Email: "user@example.com", Name: name}

	return id
}

// put inserts a row directly, bypassing uniqueness checks.
func (s *store) put(cred *entity.Credential) *entity.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	if cred.App != nil {
		cred.AppID = cred.App.ID
	}
	s.creds[cred.ID] = s.detach(cred)

	return cred
}

// row returns the stored credential as a repository read would.
func (s *store) row(id uuid.UUID) *entity.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[id]
	if !ok {
		return nil
	}

	return s.attach(c)
}

func (s *store) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.creds)
}

func (s *store) appByID(id uuid.UUID) *entity.App {
	for _, a := range s.apps {
		if a.ID == id {
			return a
		}
	}

	return nil
}

func (s *store) detach(cred *entity.Credential) *entity.Credential {
	c := *cred
	c.App = nil
	c.OAuthScopes = slices.Clone(cred.OAuthScopes)

	return &c
}

func (s *store) attach(cred *entity.Credential) *entity.Credential {
	c := *cred
	c.App = s.appByID(cred.AppID)
	c.OAuthScopes = slices.Clone(cred.OAuthScopes)

	return &c
}

type fakeCredentialRepo struct{ s *store }

func (r *fakeCredentialRepo) Create(_ context.Context, cred *entity.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.creds {
		if c.UserID == cred.UserID && c.AppID == cred.AppID {
			return repository.ErrDuplicateCredential
		}
	}
	cred.ID = uuid.New()
	cred.CreatedAt = time.Now()
	cred.UpdatedAt = cred.CreatedAt
	r.s.creds[cred.ID] = r.s.detach(cred)

	return nil
}

func (r *fakeCredentialRepo) Update(_ context.Context, cred *entity.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.creds[cred.ID]; !ok {
		return repository.ErrCredentialNotFound
	}
	cred.UpdatedAt = time.Now()
	r.s.creds[cred.ID] = r.s.detach(cred)

	return nil
}

func (r *fakeCredentialRepo) UpdateStatus(_ context.Context, id uuid.UUID, isValid bool, validationError *string, validatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creds[id]
	if !ok {
		return repository.ErrCredentialNotFound
	}
	c.IsValid = isValid
	c.ValidationError = validationError
	c.LastValidatedAt = &validatedAt

	return nil
}

func (r *fakeCredentialRepo) SetN8nCredentialID(_ context.Context, id uuid.UUID, remoteID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creds[id]
	if !ok {
		return repository.ErrCredentialNotFound
	}
	c.N8nCredentialID = remoteID

	return nil
}

func (r *fakeCredentialRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.creds[id]; !ok {
		return repository.ErrCredentialNotFound
	}
	delete(r.s.creds, id)

	return nil
}

func (r *fakeCredentialRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creds[id]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}

	return r.s.attach(c), nil
}

func (r *fakeCredentialRepo) FindByUserAndApp(_ context.Context, userID, appID uuid.UUID) (*entity.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.creds {
		if c.UserID == userID && c.AppID == appID {
			return r.s.attach(c), nil
		}
	}

	return nil, repository.ErrCredentialNotFound
}

func (r *fakeCredentialRepo) list(match func(*entity.Credential) bool) []*entity.Credential {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Credential
	for _, c := range r.s.creds {
		attached := r.s.attach(c)
		if match(attached) {
			out = append(out, attached)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Credential) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

func (r *fakeCredentialRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Credential, error) {
	return r.list(func(c *entity.Credential) bool { return c.UserID == userID }), nil
}

func (r *fakeCredentialRepo) ListOAuthWithExpiryByUser(_ context.Context, userID uuid.UUID) ([]*entity.Credential, error) {
	return r.list(func(c *entity.Credential) bool {
		return c.UserID == userID && c.AuthType() == entity.AuthTypeOAuth2 && c.OAuthExpiresAt != nil
	}), nil
}

func (r *fakeCredentialRepo) ListRefreshable(_ context.Context, expiresBefore time.Time) ([]*entity.Credential, error) {
	return r.list(func(c *entity.Credential) bool {
		return c.AuthType() == entity.AuthTypeOAuth2 &&
			c.OAuthExpiresAt != nil &&
			!c.OAuthExpiresAt.After(expiresBefore) &&
			c.HasRefreshToken()
	}), nil
}

type fakeAppRepo struct{ s *store }

func (r *fakeAppRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.App, error) {
	if a := r.s.appByID(id); a != nil {
		return a, nil
	}

	return nil, repository.ErrAppNotFound
}

func (r *fakeAppRepo) FindBySlug(_ context.Context, slug string) (*entity.App, error) {
	for _, a := range r.s.apps {
		if a.Slug == slug {
			return a, nil
		}
	}

	return nil, repository.ErrAppNotFound
}

func (r *fakeAppRepo) List(_ context.Context) ([]*entity.App, error) {
	return r.s.apps, nil
}

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}

	return nil, repository.ErrUserNotFound
}

// fakeTxManager runs the callback against the same in-memory store.
type fakeTxManager struct{ s *store }

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m)
}

func (m *fakeTxManager) AppRepo() repository.AppRepository               { return &fakeAppRepo{s: m.s} }
func (m *fakeTxManager) CredentialRepo() repository.CredentialRepository { return &fakeCredentialRepo{s: m.s} }
func (m *fakeTxManager) UserRepo() repository.UserRepository             { return &fakeUserRepo{s: m.s} }

// mockWorkflowEngine is a testify mock of the n8n client.
type mockWorkflowEngine struct {
	mock.Mock
}

func newMockWorkflowEngine(t *testing.T) *mockWorkflowEngine {
	m := &mockWorkflowEngine{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *mockWorkflowEngine) CreateCredential(ctx context.Context, cred service.RemoteCredential) (string, error) {
	args := m.Called(ctx, cred)

	return args.String(0), args.Error(1)
}

func (m *mockWorkflowEngine) DeleteCredential(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockWorkflowEngine) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakeOAuthProvider answers with canned responses keyed by code or refresh token.
type fakeOAuthProvider struct {
	provider  entity.Provider
	exchanges map[string]*entity.OAuthTokens
	refreshes map[string]*entity.OAuthTokens
	identity  *entity.OAuthIdentity

	mu           sync.Mutex
	refreshCalls []string
}

func (p *fakeOAuthProvider) Provider() entity.Provider { return p.provider }

func (p *fakeOAuthProvider) AuthorizationURL(state string, _ []string) (string, error) {
	return "https://auth.example.com/" + p.provider.String() + "?state=" + state, nil
}

func (p *fakeOAuthProvider) ExchangeCode(_ context.Context, code string) (*entity.OAuthTokens, error) {
	if tokens, ok := p.exchanges[code]; ok {
		return tokens, nil
	}

	return nil, domainerrors.ErrTokenExchange.WrapMessage("invalid_grant")
}

func (p *fakeOAuthProvider) Refresh(_ context.Context, refreshToken string) (*entity.OAuthTokens, error) {
	p.mu.Lock()
	p.refreshCalls = append(p.refreshCalls, refreshToken)
	p.mu.Unlock()

	if p.provider == entity.ProviderSlack {
		return nil, domainerrors.ErrRefreshNotSupported
	}
	if tokens, ok := p.refreshes[refreshToken]; ok {
		return tokens, nil
	}

	return nil, domainerrors.ErrTokenRefresh.WrapMessage("invalid_grant")
}

func (p *fakeOAuthProvider) WhoAmI(_ context.Context, _ string) (*entity.OAuthIdentity, error) {
	if p.identity == nil {
		return nil, domainerrors.ErrProviderUnauthorized
	}

	return p.identity, nil
}

func (p *fakeOAuthProvider) refreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.refreshCalls)
}

type fakeProviders map[entity.Provider]service.OAuthProvider

func (f fakeProviders) Get(provider entity.Provider) (service.OAuthProvider, error) {
	if p, ok := f[provider]; ok {
		return p, nil
	}

	return nil, domainerrors.ErrUnknownProvider
}

// oauthRow builds a connected OAuth credential with encrypted tokens.
func oauthRow(t *testing.T, c service.Cipher, app *entity.App, userID uuid.UUID, access, refresh string, expiresAt *time.Time) *entity.Credential {
	t.Helper()
	payload, err := c.EncryptJSON(map[string]any{})
	require.NoError(t, err)
	accessPayload, err := encryptOptional(c, access)
	require.NoError(t, err)
	refreshPayload, err := encryptOptional(c, refresh)
	require.NoError(t, err)

	return &entity.Credential{
		UserID:         userID,
		App:            app,
		Payload:        payload,
		AccessToken:    accessPayload,
		RefreshToken:   refreshPayload,
		OAuthExpiresAt: expiresAt,
		IsValid:        true,
		CreatedAt:      time.Now(),
	}
}
